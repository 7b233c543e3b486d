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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/rizome-dev/mplug/internal/plugin"
)

var (
	questionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	inputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

// prompting is set while a line prompt waits for input, so that an
// interrupt declines the prompt instead of ending the process
var prompting atomic.Bool

// Prompting reports whether the user is being asked a question
func Prompting() bool {
	return prompting.Load()
}

// NewPrompter returns a full screen prompter when in and out are terminals
// and a line based one otherwise
func NewPrompter(ctx context.Context, in io.Reader, out io.Writer) plugin.Prompter {
	if isTerminal(in) && isTerminal(out) {
		return &terminalPrompter{ctx: ctx}
	}
	return newLinePrompter(ctx, in, out)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// promptModel is a simple text input model for prompts
type promptModel struct {
	textInput textinput.Model
	question  string
	cancelled bool
}

func initialPromptModel(question, placeholder string) promptModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	ti.CharLimit = 1000
	ti.Width = 50

	return promptModel{
		textInput: ti,
		question:  question,
	}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyEnter:
			return m, tea.Quit
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	return fmt.Sprintf(
		"%s\n\n%s\n\n%s",
		questionStyle.Render(m.question),
		inputStyle.Render(m.textInput.View()),
		hintStyle.Render("(Press Enter to submit, Esc to cancel)"),
	)
}

// confirmModel is a simple yes/no confirmation model
type confirmModel struct {
	question string
	answer   bool
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "y", "Y":
			m.answer = true
			return m, tea.Quit
		case "n", "N", "enter", "ctrl+c", "esc":
			m.answer = false
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	return fmt.Sprintf(
		"%s %s\n",
		questionStyle.Render(m.question),
		hintStyle.Render("[y/N]"),
	)
}

// choiceItem is one option of a chooseModel
type choiceItem struct {
	id   string
	desc string
}

func (c choiceItem) FilterValue() string { return c.id + " " + c.desc }
func (c choiceItem) Title() string       { return c.id }
func (c choiceItem) Description() string { return c.desc }

// chooseModel lets the user pick one entry of a list
type chooseModel struct {
	list   list.Model
	choice string
}

func initialChooseModel(question string, options, descriptions []string) chooseModel {
	items := make([]list.Item, len(options))
	for i, opt := range options {
		item := choiceItem{id: opt}
		if i < len(descriptions) {
			item.desc = descriptions[i]
		}
		items[i] = item
	}

	l := list.New(items, list.NewDefaultDelegate(), 80, 20)
	l.Title = question
	l.Styles.Title = questionStyle
	l.SetShowStatusBar(false)

	return chooseModel{list: l}
}

func (m chooseModel) Init() tea.Cmd {
	return nil
}

func (m chooseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-1)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if item, ok := m.list.SelectedItem().(choiceItem); ok {
				m.choice = item.id
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m chooseModel) View() string {
	return m.list.View()
}

// terminalPrompter asks questions with interactive terminal widgets
type terminalPrompter struct {
	ctx context.Context
}

func (p *terminalPrompter) run(model tea.Model) tea.Model {
	final, err := tea.NewProgram(model, tea.WithContext(p.ctx)).Run()
	if err != nil {
		return nil
	}
	return final
}

func (p *terminalPrompter) Confirm(question string) bool {
	m, ok := p.run(confirmModel{question: question}).(confirmModel)
	return ok && m.answer
}

func (p *terminalPrompter) Choose(question string, options, descriptions []string) (string, bool) {
	m, ok := p.run(initialChooseModel(question, options, descriptions)).(chooseModel)
	if !ok || m.choice == "" {
		return "", false
	}
	return m.choice, true
}

func (p *terminalPrompter) Path(question, def string) (string, bool) {
	m, ok := p.run(initialPromptModel(question, def)).(promptModel)
	if !ok || m.cancelled {
		return "", false
	}
	return strings.TrimSpace(m.textInput.Value()), true
}

// linePrompter asks questions line by line, for pipes and dumb terminals
type linePrompter struct {
	ctx   context.Context
	in    io.Reader
	out   io.Writer
	once  sync.Once
	lines chan string
}

func newLinePrompter(ctx context.Context, in io.Reader, out io.Writer) *linePrompter {
	return &linePrompter{ctx: ctx, in: in, out: out}
}

// readLine waits for one line of input. It returns false on end of input
// or interrupt.
func (p *linePrompter) readLine() (string, bool) {
	p.once.Do(func() {
		p.lines = make(chan string)
		go func() {
			defer close(p.lines)
			scanner := bufio.NewScanner(p.in)
			for scanner.Scan() {
				p.lines <- scanner.Text()
			}
		}()
	})

	prompting.Store(true)
	defer prompting.Store(false)

	select {
	case line, ok := <-p.lines:
		if !ok {
			fmt.Fprintln(p.out)
			return "", false
		}
		return line, true
	case <-p.ctx.Done():
		fmt.Fprintln(p.out)
		return "", false
	}
}

func (p *linePrompter) Confirm(question string) bool {
	fmt.Fprintf(p.out, "%s [y/N] ", question)
	answer, ok := p.readLine()
	if !ok {
		return false
	}
	answer = strings.TrimSpace(answer)
	return answer == "y" || answer == "Y"
}

func (p *linePrompter) Choose(question string, options, descriptions []string) (string, bool) {
	width := terminalWidth()
	fmt.Fprintln(p.out, wrapText(question, 0, width))
	for i, opt := range options {
		fmt.Fprintf(p.out, "[%d] %s\n", i, opt)
		if i < len(descriptions) && descriptions[i] != "" {
			fmt.Fprintln(p.out, wrapText(descriptions[i], 1, width))
		}
	}
	fmt.Fprint(p.out, "> ")

	answer, ok := p.readLine()
	if !ok {
		return "", false
	}

	num, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || num < 0 || num >= len(options) {
		return "", false
	}
	return options[num], true
}

func (p *linePrompter) Path(question, def string) (string, bool) {
	fmt.Fprintf(p.out, "%s [%s]\n> ", question, def)
	answer, ok := p.readLine()
	if !ok {
		return "", false
	}
	return strings.TrimSpace(answer), true
}
