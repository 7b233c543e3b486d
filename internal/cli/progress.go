package cli

// Copyright (C) 2025 Rizome Labs, Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; either version 2
// of the License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program; if not, write to the Free Software
// Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rizome-dev/mplug/internal/plugin"
	pkgplugin "github.com/rizome-dev/mplug/pkg/plugin"
)

// statusModel shows a spinner with status text
type statusModel struct {
	spinner spinner.Model
	status  string
	done    bool
	err     error
}

func initialStatusModel(status string) statusModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return statusModel{
		spinner: s,
		status:  status,
	}
}

type statusDoneMsg struct{}
type statusErrorMsg struct{ err error }

func (m statusModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusDoneMsg:
		m.done = true
		return m, tea.Quit

	case statusErrorMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m statusModel) View() string {
	if m.done {
		if m.err != nil {
			return lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Render("✗ "+m.status+" failed") + "\n"
		}
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Render("✓ "+m.status) + "\n"
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.status)
}

// Status is a spinner with status text shown while work is in progress
type Status struct {
	program *tea.Program
	exited  chan struct{}
}

// NewStatus starts a status indicator on stderr. It does not read input, so
// an interrupt still reaches the signal handler.
func NewStatus(status string) *Status {
	s := &Status{
		program: tea.NewProgram(initialStatusModel(status), tea.WithInput(nil), tea.WithOutput(os.Stderr)),
		exited:  make(chan struct{}),
	}
	go func() {
		defer close(s.exited)
		_, _ = s.program.Run()
	}()
	return s
}

// Done marks the status as complete
func (s *Status) Done() {
	s.program.Send(statusDoneMsg{})
	<-s.exited
}

// Error marks the status as failed
func (s *Status) Error(err error) {
	s.program.Send(statusErrorMsg{err: err})
	<-s.exited
}

// statusFetcher shows a spinner while a plugin is fetched
type statusFetcher struct {
	next plugin.Fetcher
}

func (f statusFetcher) Fetch(ctx context.Context, src pkgplugin.Source, dir string) error {
	status := NewStatus(fmt.Sprintf("Fetching %s", src.URL()))
	if err := f.next.Fetch(ctx, src, dir); err != nil {
		status.Error(err)
		return err
	}
	status.Done()
	return nil
}

// withStatus wraps fetcher with a spinner when stderr is a terminal
func withStatus(fetcher plugin.Fetcher, verbose bool) plugin.Fetcher {
	if verbose || !isTerminal(os.Stderr) {
		return fetcher
	}
	return statusFetcher{next: fetcher}
}
