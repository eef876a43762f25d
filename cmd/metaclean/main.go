// BYZRA ⸻ cmd/metaclean/main.go
// CLI entrypoint and command routing

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"metaclean/internal/config"
	"metaclean/internal/formats"
	"metaclean/internal/logging"
	"metaclean/internal/meta"
	"metaclean/internal/util"
)

const version = "1.0.0"

// state shared by every command, filled in before any of them run
type app struct {
	configPath string
	backend    string
	logLevel   string

	cfg *config.Config
	src meta.Source
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "metaclean",
		Short: "Read, inspect and erase image metadata",
		Long: `metaclean shows the EXIF, IPTC and XMP metadata embedded in an image
and clears all of it in place.

Without a command it asks for a file, prints its metadata and offers to
erase it.

Examples:
  metaclean
  metaclean read photo.jpg
  metaclean read --json *.jpg
  metaclean clear --yes --copy photo.jpg
  metaclean watch --config ./metaclean.toml`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			util.Wiper()
			return runInteractive(a.src, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "config file (default: search "+strings.Join(config.SearchPaths(), ", ")+")")
	pf.StringVar(&a.backend, "backend", "", "metadata backend: native or exiftool")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides env "+config.EnvLogLevel+")")

	root.AddCommand(
		newReadCmd(a),
		newClearCmd(a),
		newWatchCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)

	return root
}

// config, logging, palette and metadata source; flags beat the
// environment, which beats the config file
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	cfg.ApplyEnv()
	if a.backend != "" {
		cfg.Source.Backend = strings.ToLower(a.backend)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Init(cmd.ErrOrStderr(), cfg.Log.Level)
	util.ApplyPalette(cfg.Colors)

	src, err := formats.GetSource(cfg.Source.Backend, formats.SourceOptions{
		ExiftoolPath: cfg.Source.ExiftoolPath,
	})
	if err != nil {
		return err
	}
	if et, ok := src.(*formats.ExiftoolSource); ok {
		if _, err := et.Lookup(); err != nil {
			return err
		}
	}

	log.Debug().
		Str("config", cfg.Path).
		Str("backend", src.Name()).
		Msg("ready")

	a.cfg = cfg
	a.src = src
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, util.LBL.Render("[X] "+err.Error()))
		os.Exit(1)
	}
}
