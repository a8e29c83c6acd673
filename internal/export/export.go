// Package export writes normalized tables to disk next to their source
// files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mokshasoul/bank2ynab/internal/config"
	"github.com/mokshasoul/bank2ynab/internal/table"
)

// Exporter writes the output-column projection of a normalized table.
type Exporter struct {
	log zerolog.Logger
}

// New creates an Exporter logging through log.
func New(log zerolog.Logger) *Exporter {
	return &Exporter{log: log}
}

// Write projects tbl onto cfg.OutputColumns and writes it beside inputPath
// as {prefix}{stem}{output_ext}, suffixing _1, _2... when the name is
// taken. No header row is written. When Delete Source File is set the
// original is removed after a successful write. Returns the written path.
func (e *Exporter) Write(tbl *table.Table, inputPath string, cfg *config.BankFormat) (string, error) {
	out, err := tbl.Project(cfg.OutputColumns)
	if err != nil {
		return "", fmt.Errorf("projecting output columns: %w", err)
	}

	path := OutputPath(inputPath, cfg.Prefix, cfg.OutputExt)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}

	cw := csv.NewWriter(f)
	if cfg.Delimiter != "" {
		cw.Comma = []rune(cfg.Delimiter)[0]
	}
	for i, row := range out.Rows() {
		if err := cw.Write(row); err != nil {
			f.Close()
			return "", fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return "", fmt.Errorf("flushing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}

	e.log.Info().Str("path", path).Int("rows", out.Len()).Msg("wrote export file")

	if cfg.DeleteOriginal {
		e.log.Info().Str("path", inputPath).Msg("removing source file")
		if err := os.Remove(inputPath); err != nil {
			return "", fmt.Errorf("removing source file: %w", err)
		}
	}
	return path, nil
}

// OutputPath derives the export filename for an input file, counting up
// on collision so an existing export is never overwritten.
func OutputPath(inputPath, prefix, ext string) string {
	dir := filepath.Dir(inputPath)
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))

	path := filepath.Join(dir, prefix+stem+ext)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = filepath.Join(dir, fmt.Sprintf("%s%s_%d%s", prefix, stem, counter, ext))
	}
}
