// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/kestrel-sh/kestrel/internal/config"
	"github.com/kestrel-sh/kestrel/internal/issue"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `kestrel config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage kestrel configuration",
		Long: `Manage kestrel configuration.

Configuration is stored in:
  - Linux: ~/.config/kestrel/config.cue
  - macOS: ~/Library/Application Support/kestrel/config.cue
  - Windows: %APPDATA%\kestrel\config.cue

A config.cue in the current directory is used when none exists there.
Every key can be overridden with a KESTREL_ variable, e.g. KESTREL_SHELL_PROMPT.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, source, err := app.Config.LoadWithSource(cmd.Context(), config.LoadOptions{ConfigFilePath: app.opts.configPath})
			if err != nil {
				return newServiceError(err, issue.ConfigLoadFailedId)
			}
			app.colorScheme = cfg.UI.ColorScheme
			showConfig(cmd.OutOrStdout(), cfg, source)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.CreateDefaultConfig()
			if err != nil {
				return newServiceError(err, issue.ConfigLoadFailedId)
			}
			out := cmd.OutOrStdout()
			if !created {
				fmt.Fprintf(out, "%s Configuration already exists at %s\n", SubtitleStyle.Render("•"), path)
				return nil
			}
			fmt.Fprintf(out, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return newServiceError(issue.WrapWithOperation(err, "locate configuration directory"), 0)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config directory: %s\n", cfgDir)
			fmt.Fprintf(out, "Config file: %s\n", config.ConfigFilePath(cfgDir))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: app.opts.configPath})
			if err != nil {
				return newServiceError(err, issue.ConfigLoadFailedId)
			}
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config, source string) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	if source != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), source)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	section := func(name string, kv ...any) {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s:\n", keyStyle.Render(name))
		for i := 0; i+1 < len(kv); i += 2 {
			fmt.Fprintf(w, "  %s: %s\n", kv[i], valueStyle.Render(fmt.Sprint(kv[i+1])))
		}
	}

	section("shell",
		"prompt", fmt.Sprintf("%q", cfg.Shell.Prompt),
		"sync_process_dir", cfg.Shell.SyncProcessDir)
	section("resolver",
		"require_executable", cfg.Resolver.RequireExecutable)
	section("log",
		"level", cfg.Log.Level)
	section("ui",
		"color_scheme", cfg.UI.ColorScheme)

	hostKey := cfg.Serve.HostKeyPath
	if hostKey == "" {
		if resolved, err := config.HostKeyPath(cfg); err == nil {
			hostKey = resolved + " (default)"
		}
	}
	authorized := cfg.Serve.AuthorizedKeysPath
	if authorized == "" {
		authorized = "(any client)"
	}
	section("serve",
		"host", cfg.Serve.Host,
		"port", cfg.Serve.Port,
		"host_key_path", hostKey,
		"authorized_keys_path", authorized,
		"idle_timeout", cfg.Serve.IdleTimeout,
		"shutdown_timeout", cfg.Serve.ShutdownTimeout)
}
