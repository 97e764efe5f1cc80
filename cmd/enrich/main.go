package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/stwalsh4118/schoolter/internal/config"
	"github.com/stwalsh4118/schoolter/internal/covariates"
	"github.com/stwalsh4118/schoolter/internal/enrich"
	"github.com/stwalsh4118/schoolter/internal/extract"
	"github.com/stwalsh4118/schoolter/internal/generators"
	"github.com/stwalsh4118/schoolter/internal/logger"
	"github.com/stwalsh4118/schoolter/internal/metrics"
	"github.com/stwalsh4118/schoolter/internal/models"
	"github.com/stwalsh4118/schoolter/internal/output"
	"github.com/stwalsh4118/schoolter/internal/realdata"
	"github.com/stwalsh4118/schoolter/internal/repository"
	"github.com/stwalsh4118/schoolter/internal/services"
)

func main() {
	flags := config.PipelineFlags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Invalid arguments: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	runID := uuid.New()
	log := logger.New(cfg.Server.Env, cfg.LogLevel).WithRunID(runID.String())
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	records, err := run(ctx, cfg, runID, log, m)
	m.RecordRun(cfg.Pipeline.Mode, err, records)

	if cfg.Pipeline.MetricsTextfile != "" {
		if werr := m.WriteTextfile(cfg.Pipeline.MetricsTextfile); werr != nil {
			log.Warn("Failed to write metrics textfile", map[string]interface{}{
				"path":  cfg.Pipeline.MetricsTextfile,
				"error": werr.Error(),
			})
		}
	}

	if err != nil {
		fields := map[string]interface{}{"duration": time.Since(start).String()}
		if errors.Is(err, extract.ErrInputData) {
			fields["input"] = cfg.Pipeline.Input
		}
		log.Error("Pipeline failed", err, fields)
		stop()
		os.Exit(1)
	}

	log.Info("Pipeline finished", map[string]interface{}{
		"records":  records,
		"duration": time.Since(start).String(),
	})
}

// run executes one extract, enrich and write pass and returns the number
// of records written.
func run(ctx context.Context, cfg *config.Config, runID uuid.UUID, log *logger.Logger, m *metrics.Metrics) (int, error) {
	mode, err := enrich.ParseMode(cfg.Pipeline.Mode)
	if err != nil {
		return 0, err
	}

	log.Info("Starting pipeline", map[string]interface{}{
		"mode":           mode,
		"input":          cfg.Pipeline.Input,
		"output":         cfg.Pipeline.Output,
		"reference_year": cfg.Pipeline.ReferenceYear,
	})

	tables := covariates.Default()
	tr := extract.NewTransformer(tables, cfg.Pipeline.Areas, log)
	res, err := extract.Load(extract.Input{
		CSVPath:      cfg.Pipeline.Input,
		Encoding:     cfg.Pipeline.InputEncoding,
		FallbackPath: cfg.Pipeline.Fallback,
	}, tr, log)
	if err != nil {
		return 0, err
	}

	var source enrich.RealDataSource
	if mode != enrich.ModeQuick {
		source = realdata.NewClient(cfg.RealData.BaseURL, cfg.Pipeline.FetchTimeout, m)
	}

	enricher, err := enrich.New(tables, source, enrich.Options{
		Mode:  mode,
		Env:   generators.Env{ReferenceYear: cfg.Pipeline.ReferenceYear},
		Delay: cfg.Pipeline.Delay,
	}, log, m)
	if err != nil {
		return 0, err
	}

	report, err := enricher.Run(ctx, res.Schools)
	if err != nil {
		return 0, err
	}

	generatedAt := time.Now().UTC()
	if err := output.Write(cfg.Pipeline.Output, res.Schools, output.Header{
		GeneratedAt: generatedAt,
		Sources:     report.Sources,
	}); err != nil {
		return 0, err
	}

	log.Info("Artifact written", map[string]interface{}{
		"path":          cfg.Pipeline.Output,
		"records":       report.Records,
		"fetched":       report.Fetched,
		"from_fallback": res.FromFallback,
		"sources":       report.Sources.Summary(),
	})

	if cfg.Pipeline.Publish {
		snap := &models.Snapshot{
			RunID:       runID,
			Mode:        string(mode),
			Records:     len(res.Schools),
			Sources:     report.Sources,
			GeneratedAt: generatedAt,
			PublishedAt: time.Now().UTC(),
		}
		if err := publish(ctx, cfg.Database, snap, res.Schools, log); err != nil {
			return 0, err
		}
	}

	return report.Records, nil
}

// publish replaces the database snapshot with schools.
func publish(ctx context.Context, dbCfg config.DatabaseConfig, snap *models.Snapshot, schools []*models.School, log *logger.Logger) error {
	store, err := repository.Open(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer store.Close()

	return services.NewSchoolService(store.Schools, log).Publish(ctx, snap, schools)
}
