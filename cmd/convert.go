package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/papapumpkin/rocketserializer/internal/artifact"
	"github.com/papapumpkin/rocketserializer/internal/batch"
	"github.com/papapumpkin/rocketserializer/internal/config"
	"github.com/papapumpkin/rocketserializer/internal/extract"
	"github.com/papapumpkin/rocketserializer/internal/ledger"
	"github.com/papapumpkin/rocketserializer/internal/notebook"
	"github.com/papapumpkin/rocketserializer/internal/ork"
	"github.com/papapumpkin/rocketserializer/internal/ui"
)

// converted lists what one conversion produced.
type converted struct {
	Written         artifact.Written
	Notebook        string
	FreeformFinSets int
}

// Files returns every written path.
func (c converted) Files() []string {
	files := []string{c.Written.Parameters, c.Written.DragCurve, c.Written.ThrustCurve}
	if c.Notebook != "" {
		files = append(files, c.Notebook)
	}
	return files
}

// convertJob runs one conversion: precondition checks, extraction, output
// files, and the notebook when requested.
func convertJob(job batch.Job, cfg config.Config, log *zap.Logger) (converted, error) {
	log = log.With(zap.String("input", job.Input))

	doc, err := ork.Open(job.Input)
	if err != nil {
		return converted{}, err
	}
	defer doc.Close()

	if err := doc.Validate(); err != nil {
		return converted{}, err
	}

	res, err := extract.Extract(doc, extract.Options{OutputDir: job.OutputDir, Logger: log})
	if err != nil {
		return converted{}, fmt.Errorf("%s: %w", job.Input, err)
	}

	format := job.Format
	if format == "" {
		format = cfg.Format
	}
	written, err := artifact.Write(job.OutputDir, res, format)
	if err != nil {
		return converted{}, fmt.Errorf("%s: writing outputs: %w", job.Input, err)
	}
	log.Info("parameters written", zap.String("path", written.Parameters))

	out := converted{Written: written, FreeformFinSets: res.FreeformFinSets}
	if !job.Notebook {
		return out, nil
	}
	b, err := notebook.Load(written.Parameters, notebook.Options{
		RocketPyRequirement: cfg.Notebook.RocketPyRequirement,
		MaxTime:             cfg.Notebook.MaxTime,
		Logger:              log,
	})
	if err != nil {
		return out, err
	}
	if out.Notebook, err = b.Build(job.OutputDir); err != nil {
		return out, fmt.Errorf("%s: %w", job.Input, err)
	}
	return out, nil
}

// recorder writes conversion runs to the ledger. Ledger failures are logged
// and never fail a conversion.
type recorder struct {
	store *ledger.Store
	log   *zap.Logger
}

func openRecorder(ctx context.Context, cfg config.Config, log *zap.Logger) *recorder {
	r := &recorder{log: log}
	if cfg.LedgerPath == "" {
		return r
	}
	store, err := ledger.Open(ctx, cfg.LedgerPath)
	if err != nil {
		log.Warn("run ledger unavailable", zap.String("path", cfg.LedgerPath), zap.Error(err))
		return r
	}
	r.store = store
	return r
}

func (r *recorder) record(ctx context.Context, job batch.Job, format string, started time.Time, convErr error) {
	if r.store == nil {
		return
	}
	run := ledger.Run{
		Input:     job.Input,
		OutputDir: job.OutputDir,
		Format:    format,
		Status:    ledger.StatusOK,
		StartedAt: started,
		Duration:  time.Since(started),
	}
	if convErr != nil {
		run.Status = ledger.StatusFailed
		run.Error = convErr.Error()
	}
	id, err := r.store.Record(ctx, run)
	if err != nil {
		r.log.Warn("recording run failed", zap.String("input", job.Input), zap.Error(err))
		return
	}
	r.log.Debug("run recorded", zap.String("id", id))
}

func (r *recorder) Close() {
	if r.store != nil {
		_ = r.store.Close()
	}
}

// runConversion converts job, records the run, and reports it on printer.
func runConversion(ctx context.Context, job batch.Job, cfg config.Config, rec *recorder, printer *ui.Printer) error {
	started := time.Now()
	out, err := convertJob(job, cfg, logger)
	format := job.Format
	if format == "" {
		format = cfg.Format
	}
	rec.record(ctx, job, format, started, err)
	if err != nil {
		logger.Error("conversion failed", zap.String("input", job.Input), zap.Error(err))
		printer.Failed(job.Input, err)
		return err
	}
	printer.Converted(job.Input, out.Files()...)
	if out.FreeformFinSets > 0 {
		printer.Warn(fmt.Sprintf("%d free-form fin set(s) skipped, RocketPy cannot model them from this file", out.FreeformFinSets))
	}
	return nil
}

// defaultOutputDir is the directory of the input file, unless configured.
func defaultOutputDir(cfg config.Config, input string) string {
	if cfg.OutputDir != "" {
		return cfg.OutputDir
	}
	return filepath.Dir(input)
}

// setupSignalContext cancels the returned context on SIGINT or SIGTERM.
func setupSignalContext(printer *ui.Printer) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			printer.Info("\nshutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
