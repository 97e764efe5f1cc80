package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/stwalsh4118/schoolter/internal/logger"
	"github.com/stwalsh4118/schoolter/internal/models"
	"github.com/stwalsh4118/schoolter/internal/output"
)

// Input names the pipeline's input files.
type Input struct {
	CSVPath      string
	Encoding     string
	FallbackPath string
}

// Result is the extracted record set.
type Result struct {
	Schools      []*models.School
	Stats        Stats
	FromFallback bool
}

// LoadFile reads and transforms the CSV at path. Any failure to open or
// parse the file is an ErrInputData.
func LoadFile(path, encoding string, tr *Transformer) ([]*models.School, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %v", ErrInputData, err)
	}
	defer f.Close()

	rows, err := ReadCSV(f, encoding)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	schools, stats := tr.Transform(rows)
	return schools, stats, nil
}

// Load reads the CSV, or the fallback artifact when the CSV does not exist.
// Fallback records have their sub-records stripped so they are enriched
// from scratch. With neither file present the run cannot proceed.
func Load(in Input, tr *Transformer, log *logger.Logger) (*Result, error) {
	_, err := os.Stat(in.CSVPath)
	switch {
	case err == nil:
		schools, stats, err := LoadFile(in.CSVPath, in.Encoding, tr)
		if err != nil {
			return nil, err
		}
		log.Info("Extracted establishments", map[string]interface{}{
			"path":        in.CSVPath,
			"rows":        stats.Rows,
			"kept":        stats.Kept,
			"closed":      stats.Closed,
			"out_of_area": stats.OutOfArea,
			"invalid":     stats.Invalid,
		})
		return &Result{Schools: schools, Stats: stats}, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %v", ErrInputData, err)
	}

	if in.FallbackPath == "" {
		return nil, fmt.Errorf("%w: %s does not exist and no fallback is configured", ErrInputData, in.CSVPath)
	}
	if _, err := os.Stat(in.FallbackPath); err != nil {
		return nil, fmt.Errorf("%w: %s does not exist and fallback %s is unavailable", ErrInputData, in.CSVPath, in.FallbackPath)
	}

	schools, err := output.Load(in.FallbackPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputData, err)
	}
	for _, s := range schools {
		s.StripEnrichment()
	}
	log.Warn("CSV not found, using previous artifact", map[string]interface{}{
		"csv":      in.CSVPath,
		"fallback": in.FallbackPath,
		"records":  len(schools),
	})
	return &Result{
		Schools:      schools,
		Stats:        Stats{Rows: len(schools), Kept: len(schools)},
		FromFallback: true,
	}, nil
}
