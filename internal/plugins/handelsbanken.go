// Package plugins holds the built-in file preprocessors and registers
// them into a bank plugin registry.
package plugins

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/mokshasoul/bank2ynab/internal/bank"
)

// DefaultRegistry returns a registry with all built-in preprocessors.
func DefaultRegistry() *bank.Registry {
	r := bank.NewRegistry()
	r.Register("handelsbanken", func(args []string) (bank.Preprocessor, error) {
		return &Handelsbanken{}, nil
	})
	return r
}

// Handelsbanken strips the markup wrapping in Handelsbanken [SE] export
// files, rewriting the file in place as a plain ;-delimited CSV so the
// regular loader can read it.
type Handelsbanken struct{}

var markupSpan = regexp.MustCompile(`>[^<>]*<`)

// Preprocess rewrites the file at path and returns the same path.
func (h *Handelsbanken) Preprocess(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	var rows [][]string
	for _, line := range strings.Split(string(data), "\n") {
		var row []string
		for _, cell := range strings.Split(line, ";") {
			if text := extractText(cell); text != "" {
				row = append(row, text)
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return path, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("rewriting %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	cw.Comma = ';'
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("writing %s: %w", path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flushing %s: %w", path, err)
	}
	return path, nil
}

// extractText returns the first non-empty text span between markup tags.
func extractText(cell string) string {
	for _, span := range markupSpan.FindAllString(cell, -1) {
		if text := strings.TrimSpace(span[1 : len(span)-1]); text != "" {
			return text
		}
	}
	return ""
}
