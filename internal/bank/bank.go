// Package bank orchestrates one bank format's full processing run:
// discover matching files, preprocess, load, normalize, export, and
// aggregate the resulting API records across files.
package bank

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mokshasoul/bank2ynab/internal/config"
	"github.com/mokshasoul/bank2ynab/internal/export"
	"github.com/mokshasoul/bank2ynab/internal/loader"
	"github.com/mokshasoul/bank2ynab/internal/normalize"
	"github.com/mokshasoul/bank2ynab/internal/ynab"
)

// Handler processes all files for one bank format.
type Handler struct {
	cfg  *config.BankFormat
	pre  Preprocessor
	norm *normalize.Normalizer
	exp  *export.Exporter
	log  zerolog.Logger

	// Populated by Run.
	FilesProcessed int
	Transactions   []ynab.Transaction
}

// New creates a Handler, resolving the configured plugin against the
// registry. An unknown plugin name is a configuration error.
func New(cfg *config.BankFormat, reg *Registry, log zerolog.Logger) (*Handler, error) {
	pre, err := reg.Build(cfg.Plugin, cfg.PluginArgs)
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", cfg.Name, err)
	}
	l := log.With().Str("bank", cfg.Name).Logger()
	return &Handler{
		cfg:  cfg,
		pre:  pre,
		norm: normalize.New(l),
		exp:  export.New(l),
		log:  l,
	}, nil
}

// Run processes every matching file sequentially. Per-file failures are
// logged and skipped; they never abort the run. Afterwards Transactions
// holds the cross-file deduplicated API records.
func (h *Handler) Run() error {
	files, err := Discover(h.cfg, h.log)
	if err != nil {
		return fmt.Errorf("discovering files for %s: %w", h.cfg.Name, err)
	}

	var perFile [][]ynab.Transaction
	for _, path := range files {
		records, err := h.processFile(path)
		if err != nil {
			if errors.Is(err, loader.ErrNoData) || errors.Is(err, normalize.ErrEmptyTable) {
				h.log.Info().Str("file", path).Msg("no output data from this file")
			} else {
				h.log.Error().Err(err).Str("file", path).Msg("skipping file")
			}
			continue
		}
		h.FilesProcessed++
		perFile = append(perFile, records)
	}

	h.Transactions = dedupe(perFile)
	return nil
}

func (h *Handler) processFile(path string) ([]ynab.Transaction, error) {
	h.log.Info().Str("file", path).Msg("parsing input file")

	path, err := h.pre.Preprocess(path)
	if err != nil {
		return nil, fmt.Errorf("preprocessing: %w", err)
	}

	tbl, err := loader.ReadFile(path, loader.Options{
		Delimiter:  h.cfg.Delimiter,
		HeaderRows: h.cfg.HeaderRows,
		FooterRows: h.cfg.FooterRows,
		Encoding:   h.cfg.Encoding,
	})
	if err != nil {
		return nil, err
	}

	result, err := h.norm.Run(tbl, h.cfg)
	if err != nil {
		return nil, err
	}

	if _, err := h.exp.Write(result.Table, path, h.cfg); err != nil {
		return nil, err
	}
	return result.Records, nil
}

// dedupe concatenates per-file record slices and drops exact duplicates,
// keeping first occurrences in order. Overlapping export windows produce
// identical records (including import ids), so equality catches them.
func dedupe(perFile [][]ynab.Transaction) []ynab.Transaction {
	seen := make(map[ynab.Transaction]struct{})
	var out []ynab.Transaction
	for _, records := range perFile {
		for _, r := range records {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}
