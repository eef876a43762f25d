// BYZRA ⸻ cmd/metaclean/commands.go
// read, clear, watch & version commands

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"metaclean/internal/analyse"
	"metaclean/internal/config"
	"metaclean/internal/daemon"
	"metaclean/internal/formats"
	"metaclean/internal/util"
	"metaclean/internal/wipe"
)

func newReadCmd(a *app) *cobra.Command {
	var asJSON, plain bool

	cmd := &cobra.Command{
		Use:     "read <file>...",
		Aliases: []string{"analyse", "analyze", "view"},
		Short:   "Show the metadata of one or more images",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			reports, err := util.SpinWhile("[~] Analyzing metadata", func() ([]*analyse.AnalysisReport, error) {
				return analyse.AnalyzeFiles(a.src, args), nil
			})
			if err != nil {
				return err
			}

			failed := 0
			for _, r := range reports {
				if r.Err != nil {
					failed++
					log.Debug().Err(r.Err).Str("path", r.Path).Msg("read failed")
				}
			}

			switch {
			case asJSON:
				data, err := analyse.GenerateJSON(reports)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			case plain:
				for i, r := range reports {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprint(out, analyse.GenerateSimplifiedReport(r))
				}
			default:
				for i, r := range reports {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprint(out, analyse.GenerateReport(r))
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be read", failed, len(reports))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print reports as JSON")
	cmd.Flags().BoolVar(&plain, "plain", false, "print plain key: value reports")
	cmd.MarkFlagsMutuallyExclusive("json", "plain")

	return cmd
}

// wipe flags; unset ones fall back to the [wipe] config section
type wipeFlags struct {
	yes      bool
	copy     bool
	backup   bool
	secure   bool
	noVerify bool
}

func (f *wipeFlags) register(fs *pflag.FlagSet) {
	fs.BoolVarP(&f.yes, "yes", "y", false, "do not ask for confirmation")
	fs.BoolVar(&f.copy, "copy", false, "write a <name>.clean copy and leave the original untouched")
	fs.BoolVar(&f.backup, "backup", false, "keep a .bak of the original")
	fs.BoolVar(&f.secure, "secure", false, "overwrite the backup before deleting it")
	fs.BoolVar(&f.noVerify, "no-verify", false, "skip the post-wipe verification")
}

func (f *wipeFlags) options(fs *pflag.FlagSet, a *app) *wipe.WipeOptions {
	opts := &wipe.WipeOptions{
		CreateCopy:   a.cfg.Wipe.Copy,
		KeepBackup:   a.cfg.Wipe.Backup,
		SecureDelete: a.cfg.Wipe.Secure,
		Verify:       a.cfg.Wipe.Verify,
	}
	if fs.Changed("copy") {
		opts.CreateCopy = f.copy
	}
	if fs.Changed("backup") {
		opts.KeepBackup = f.backup
	}
	if fs.Changed("secure") {
		opts.SecureDelete = f.secure
	}
	if f.noVerify {
		opts.Verify = false
	}
	return opts
}

func newClearCmd(a *app) *cobra.Command {
	var flags wipeFlags

	cmd := &cobra.Command{
		Use:     "clear <file>...",
		Aliases: []string{"wipe"},
		Short:   "Erase all metadata from one or more images",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options(cmd.Flags(), a)
			if opts.CreateCopy && opts.KeepBackup {
				return errors.New("--copy and --backup are mutually exclusive")
			}

			out := cmd.OutOrStdout()
			prompter := util.NewPrompter(cmd.InOrStdin(), out)

			failed := 0
			for _, path := range args {
				if err := clearOne(a, prompter, out, path, opts, flags.yes); err != nil {
					if errors.Is(err, io.EOF) {
						return err
					}
					failed++
					fmt.Fprintf(out, "%s %s\n", util.ErrorSymbol(), util.BRH.Render(err.Error()))
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be cleared", failed, len(args))
			}
			return nil
		},
	}

	flags.register(cmd.Flags())
	return cmd
}

func clearOne(a *app, p *util.Prompter, out io.Writer, path string, opts *wipe.WipeOptions, yes bool) error {
	if !yes {
		report, err := analyse.Analyze(a.src, path)
		if err != nil {
			return err
		}
		fmt.Fprint(out, analyse.GenerateReport(report))

		if report.TagCount() == 0 {
			return nil
		}

		ok, err := p.Confirm("Do you want to erase all metadata above? (y/n) ")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, util.InfoSymbol()+util.SUB.Render(" Skipped "+path))
			return nil
		}
	}

	result, err := wipe.WipeFile(a.src, path, opts)
	if err != nil {
		return err
	}

	fmt.Fprint(out, wipe.FormatWipeResult(result))
	if result.Verification != nil {
		fmt.Fprint(out, wipe.FormatVerificationResult(result.Verification))
	}
	if !result.Success {
		fmt.Fprintln(out, util.WarningSymbol()+util.SUB.Render(" Verification did not pass for "+path))
		return fmt.Errorf("clearing %s completed with issues", path)
	}
	return nil
}

func newWatchCmd(a *app) *cobra.Command {
	var paths []string
	var policy string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch directories and clear new images according to the policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(paths) > 0 {
				a.cfg.Watch.Paths = paths
			}
			if policy != "" {
				a.cfg.Watch.Policy = policy
			}

			d, err := daemon.NewDaemon(a.cfg, a.src, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// SIGHUP starts a fresh log file
			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)
			go func() {
				for {
					select {
					case <-hup:
						if err := d.RotateLog(); err != nil {
							log.Warn().Err(err).Msg("log rotation failed")
						}
					case <-ctx.Done():
						return
					}
				}
			}()

			fmt.Fprintln(cmd.OutOrStdout(), util.NSH.Render("[~] Watching, Ctrl+C to stop"))
			if err := d.Run(ctx); err != nil {
				return err
			}

			s := d.Status()
			fmt.Fprintln(cmd.OutOrStdout(), util.SEC.Render(fmt.Sprintf(
				"✓ %d files processed, %d cleared, %d errors (log: %s)",
				s.ProcessedFiles, s.ClearedFiles, s.ErrorCount, s.LogPath)))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&paths, "path", "p", nil, "directory to watch (repeatable, overrides [watch] paths)")
	cmd.Flags().StringVar(&policy, "policy", "", "lua script defining should_clear(file)")

	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the current settings to a config file",
		Long: `Writes the settings in effect (config file, environment and flags) as
TOML. Without a path the file goes to ~/.metaclean/config/` + config.FileName + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				dir, err := config.SetupConfigDir()
				if err != nil {
					return fmt.Errorf("failed to create config directory: %w", err)
				}
				path = filepath.Join(dir, config.FileName)
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config already exists: %s (use --force to overwrite)", path)
			}
			if err := config.Save(a.cfg, path); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), util.SEC.Render(util.SuccessSymbol()+" Config written to "+path))
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// no config needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, util.LBL.Render("METACLEAN v"+version))
			fmt.Fprintln(out, util.SUB.Render("→ read and erase image metadata"))
			fmt.Fprintln(out, util.SUB.Render("formats: "+strings.Join(formats.SupportedFormats(), ", ")))
		},
	}
}
