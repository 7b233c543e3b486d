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
	"fmt"

	"github.com/spf13/cobra"
)

// Build information, set by main
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// RootCmd returns the root command
func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mplug",
		Short: "A plugin manager for mpv",
		Long: `MPlug installs, disables, removes and upgrades mpv scripts, shaders, fonts
and other extensions listed in the mpv script directory.`,
		Version: Version,
		// Override default help behavior to show our custom grouped commands
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "show debug output")
	rootCmd.PersistentFlags().String("config", "", "config file (default is <workdir>/config.yaml)")

	rootCmd.SetHelpTemplate(customHelpTemplate())

	// Disable the default help command and add our own
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "help [command]",
		Short: "Help about any command",
		Long: `Help provides help for any command in the application.
Simply type mplug help [path to command] for full details.`,
		DisableFlagsInUseLine: true,
		ValidArgsFunction: func(c *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			var completions []string
			cmd, _, e := c.Root().Find(args)
			if e != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			if cmd == nil {
				cmd = c.Root()
			}
			for _, subCmd := range cmd.Commands() {
				if subCmd.IsAvailableCommand() {
					completions = append(completions, fmt.Sprintf("%s\t%s", subCmd.Name(), subCmd.Short))
				}
			}
			return completions, cobra.ShellCompDirectiveNoFileComp
		},
		Run: func(c *cobra.Command, args []string) {
			cmd, _, e := c.Root().Find(args)
			if cmd == nil || e != nil {
				c.Printf("Unknown help topic %#q\n", args)
				_ = c.Root().Usage()
			} else {
				_ = cmd.Help()
			}
		},
	})

	// Plugin commands
	rootCmd.AddCommand(
		InstallCmd(),
		UninstallCmd(),
		DisableCmd(),
		SearchCmd(),
		ListInstalledCmd(),
	)

	// Catalog commands
	rootCmd.AddCommand(
		UpdateCmd(),
		UpgradeCmd(),
	)

	// System commands
	rootCmd.AddCommand(
		CompletionCmd(),
		VersionCmd(),
	)

	return rootCmd
}

// customHelpTemplate returns a custom help template with grouped commands
func customHelpTemplate() string {
	return `{{with .Long}}{{.}}

{{end}}Usage:
  {{.UseLine}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]

Plugin Commands:
  install NAME|ID     Install a plugin by name or plugin-id
  uninstall NAME|ID   Remove a plugin from the system
  disable NAME|ID     Disable a plugin without deleting it from the system
  search TEXT         Search for a plugin by name and description
  list-installed      List all plugins installed with mplug

Catalog Commands:
  update              Update the list of available plugins
  upgrade             Update all plugins

System Commands:
  completion          Generate shell completions
  version             Print version information
  help                Help about any command{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
}

// VersionCmd prints build information
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mplug %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	}
}

// CompletionCmd generates shell completions
func CompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `To load completions:

Bash:
  $ source <(mplug completion bash)
  # To load completions for each session, execute once:
  $ mplug completion bash > /etc/bash_completion.d/mplug

Zsh:
  $ source <(mplug completion zsh)
  # To load completions for each session, execute once:
  $ mplug completion zsh > "${fpath[1]}/_mplug"

Fish:
  $ mplug completion fish | source
  # To load completions for each session, execute once:
  $ mplug completion fish > ~/.config/fish/completions/mplug.fish

PowerShell:
  PS> mplug completion powershell | Out-String | Invoke-Expression
  # To load completions for every new session, run:
  PS> mplug completion powershell > mplug.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletion(out)
			}
			return nil
		},
	}
	return cmd
}
