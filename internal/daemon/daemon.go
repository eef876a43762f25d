// BYZRA ⸻ internal/daemon/daemon.go
// watch mode: clears new files according to the policy

package daemon

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"metaclean/internal/analyse"
	"metaclean/internal/config"
	"metaclean/internal/meta"
	"metaclean/internal/wipe"
)

// background service that monitors files
type Daemon struct {
	config  *config.Config
	source  meta.Source
	policy  config.Policy
	logger  *Logger
	watcher *Watcher

	mu        sync.Mutex
	running   bool
	startTime time.Time
	processed int
	cleared   int
	errors    int
}

// current state of the daemon
type DaemonStatus struct {
	Running        bool
	WatchedDirs    []string
	FileTypes      []string
	ProcessedFiles int
	ClearedFiles   int
	ErrorCount     int
	StartTime      time.Time
	LogPath        string
}

// new daemon instance; console, when set, mirrors the log
func NewDaemon(cfg *config.Config, src meta.Source, console io.Writer) (*Daemon, error) {
	logger, err := NewLogger(cfg.Log.File, cfg.Log.Level, console)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	var policy config.Policy = config.DefaultPolicy{}
	if cfg.Watch.Policy != "" {
		lp, err := config.LoadPolicy(cfg.Watch.Policy)
		if err != nil {
			logger.Close()
			return nil, err
		}
		policy = lp
	}

	return &Daemon{
		config: cfg,
		source: src,
		policy: policy,
		logger: logger,
	}, nil
}

func (d *Daemon) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("daemon already running")
	}

	d.logger.Info().Str("source", d.source.Name()).Msg("starting daemon")

	options := WatchOptions{
		Extensions: d.config.Watch.Extensions,
		Exclude:    d.config.Watch.Exclude,
		MinFileAge: d.config.Watch.MinAge.Duration,
		Recursive:  d.config.Watch.Recursive,
	}

	watcher, err := NewWatcher(d.config.Watch.Paths, options, d.HandleFile, d.logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	d.watcher = watcher
	d.running = true
	d.startTime = time.Now()

	d.logger.Info().Msg("daemon started successfully")
	return nil
}

// stops watching; the log and policy stay usable until Close
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon not running")
	}
	d.running = false
	watcher := d.watcher
	d.watcher = nil
	d.mu.Unlock()

	d.logger.Info().Msg("stopping daemon")

	if err := watcher.Stop(); err != nil {
		d.logger.Error().Err(err).Msg("error stopping watcher")
		return err
	}

	d.logger.Info().Msg("daemon stopped")
	return nil
}

// starts, blocks until ctx is done, then stops and closes
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(); err != nil {
		d.Close()
		return err
	}

	<-ctx.Done()

	err := d.Stop()
	s := d.Status()
	d.logger.Info().
		Int("processed", s.ProcessedFiles).
		Int("cleared", s.ClearedFiles).
		Int("errors", s.ErrorCount).
		Dur("uptime", time.Since(s.StartTime)).
		Msg("session summary")
	d.Close()

	return err
}

func (d *Daemon) RotateLog() error {
	return d.logger.Rotate()
}

func (d *Daemon) Close() error {
	if c, ok := d.policy.(*config.LuaPolicy); ok {
		c.Close()
	}
	return d.logger.Close()
}

// [wipe] settings; the console belongs to the log mirror, so no spinner
func (d *Daemon) wipeOptions() *wipe.WipeOptions {
	return &wipe.WipeOptions{
		CreateCopy:   d.config.Wipe.Copy,
		KeepBackup:   d.config.Wipe.Backup,
		SecureDelete: d.config.Wipe.Secure,
		Verify:       d.config.Wipe.Verify,
		Quiet:        true,
	}
}

func (d *Daemon) Status() DaemonStatus {
	d.mu.Lock()
	defer d.mu.Unlock()

	status := DaemonStatus{
		Running:        d.running,
		WatchedDirs:    d.config.Watch.Paths,
		FileTypes:      d.config.Watch.Extensions,
		ProcessedFiles: d.processed,
		ClearedFiles:   d.cleared,
		ErrorCount:     d.errors,
		StartTime:      d.startTime,
		LogPath:        d.logger.Path(),
	}
	if d.watcher != nil {
		status.WatchedDirs = d.watcher.dirs
	}
	return status
}

// analyse, ask the policy, clear; runs to completion for one file
func (d *Daemon) HandleFile(path string) error {
	err := d.handle(path)

	d.mu.Lock()
	d.processed++
	if err != nil {
		d.errors++
	}
	d.mu.Unlock()

	return err
}

func (d *Daemon) handle(path string) error {
	log := d.logger.With().Str("path", path).Logger()

	report, err := analyse.Analyze(d.source, path)
	if err != nil {
		log.Warn().Err(err).Msg("analysis failed")
		return err
	}

	exif, iptc, xmp := report.Counts()
	log.Debug().
		Str("media_type", report.FileType.MimeType.String()).
		Int("exif", exif).Int("iptc", iptc).Int("xmp", xmp).
		Int("sensitive", len(report.Sensitive)).
		Msg("analysed")

	if report.TagCount() == 0 {
		log.Debug().Msg("no metadata, skipping")
		return nil
	}

	shouldClear, err := d.policy.ShouldClear(config.PolicyInput{
		Path:      path,
		MediaType: report.FileType.MimeType.String(),
		Exif:      exif,
		Iptc:      iptc,
		Xmp:       xmp,
		Sensitive: len(report.Sensitive),
		Tags:      report.TagMap(),
	})
	if err != nil {
		log.Error().Err(err).Msg("policy failed")
		return err
	}
	if !shouldClear {
		log.Info().Int("tags", report.TagCount()).Msg("kept by policy")
		return nil
	}

	result, err := wipe.WipeFile(d.source, path, d.wipeOptions())
	if err != nil {
		log.Error().Err(err).Msg("clear failed")
		return err
	}

	if !result.Success {
		ev := log.Warn().Strs("errors", result.WipeErrors)
		if result.Verification != nil {
			ev = ev.Strs("remaining", result.Verification.RemainingFields)
		}
		ev.Msg("verification failed")
		return fmt.Errorf("verification failed for %s", path)
	}

	d.mu.Lock()
	d.cleared++
	d.mu.Unlock()

	log.Info().
		Int("removed", result.RemovedCount).
		Str("output", result.OutputPath).
		Msg("metadata cleared")
	return nil
}
