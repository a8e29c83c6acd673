// Package loader reads bank-exported delimited text files into raw tables.
// It knows nothing about the canonical schema: column naming happens in the
// normalizer, driven by configuration.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"github.com/mokshasoul/bank2ynab/internal/table"
)

// ErrNoData indicates no data rows remained after header/footer skipping.
var ErrNoData = errors.New("no data rows after skipping")

// Options controls how a raw file is read.
type Options struct {
	Delimiter  string // field separator, first rune used; "," when empty
	HeaderRows int    // lines discarded from the top
	FooterRows int    // lines discarded from the bottom
	Encoding   string // IANA charset name; UTF-8 when empty
}

// ReadFile loads the file at path into a raw table according to opts.
// Blank lines are skipped and leading whitespace after each delimiter is
// trimmed. Field quoting follows CSV conventions.
func ReadFile(path string, opts Options) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, opts)
}

// Read is ReadFile over an arbitrary reader.
func Read(r io.Reader, opts Options) (*table.Table, error) {
	dec, err := decoderFor(opts.Encoding)
	if err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(transform.NewReader(r, dec))
	if err != nil {
		return nil, fmt.Errorf("decoding input: %w", err)
	}

	lines := splitLines(string(raw))
	lines = trimEdges(lines, opts.HeaderRows, opts.FooterRows)

	kept := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return nil, ErrNoData
	}

	delim := ','
	if opts.Delimiter != "" {
		delim = []rune(opts.Delimiter)[0]
	}

	cr := csv.NewReader(strings.NewReader(strings.Join(kept, "\n")))
	cr.Comma = delim
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading delimited data: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	return table.New(rows), nil
}

func decoderFor(name string) (transform.Transformer, error) {
	if name == "" {
		return encoding.Nop.NewDecoder(), nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc.NewDecoder(), nil
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func trimEdges(lines []string, header, footer int) []string {
	if header > len(lines) {
		return nil
	}
	lines = lines[header:]
	if footer >= len(lines) {
		return nil
	}
	return lines[:len(lines)-footer]
}
