// Package config loads bank-format definitions from INI configuration
// files. A base file ships the known bank formats; an optional user file
// overrides individual keys. Values missing from a bank's section fall
// back to the [DEFAULT] section, and nothing else.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/ini.v1"
)

// ErrKeyNotFound indicates a key missing from both the bank section and
// the DEFAULT section.
var ErrKeyNotFound = errors.New("key not found in section or DEFAULT")

// BankFormat describes how one bank's export file maps to the canonical
// transaction schema. Immutable after load.
type BankFormat struct {
	Name          string
	InputColumns  []string
	OutputColumns []string
	APIColumns    []string

	FilePattern string
	SourcePath  string
	Ext         string
	UseRegex    bool
	Prefix      string
	OutputExt   string

	Delimiter  string
	Encoding   string
	HeaderRows int
	FooterRows int

	DateFormat      string
	DateDedupe      bool
	DeleteOriginal  bool
	CDFlags         []string
	PayeeToMemo     bool
	CurrencyDivisor float64

	Plugin     string
	PluginArgs []string

	SaveAccount bool
}

// Handler reads typed values out of the merged configuration files.
type Handler struct {
	file *ini.File
	log  zerolog.Logger
}

// Load merges the base configuration with an optional user override file.
// Keys set in the user file win. A missing base file is fatal; a missing
// user file is not.
func Load(basePath, userPath string, log zerolog.Logger) (*Handler, error) {
	if _, err := os.Stat(basePath); err != nil {
		return nil, fmt.Errorf("configuration file not found: %w", err)
	}

	sources := []interface{}{basePath}
	if userPath != "" {
		if _, err := os.Stat(userPath); err == nil {
			sources = append(sources, userPath)
		} else {
			log.Debug().Str("path", userPath).Msg("no user configuration file")
		}
	}

	f, err := ini.Load(sources[0], sources[1:]...)
	if err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	return &Handler{file: f, log: log}, nil
}

// SectionNames returns the configured bank-format names, excluding DEFAULT.
func (h *Handler) SectionNames() []string {
	var names []string
	for _, sec := range h.file.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		names = append(names, sec.Name())
	}
	return names
}

// BankFormat resolves one section into a validated BankFormat.
func (h *Handler) BankFormat(name string) (*BankFormat, error) {
	bf := &BankFormat{Name: name}

	var err error
	collect := func(dst *[]string, key, sep string) {
		if err != nil {
			return
		}
		var raw string
		raw, err = h.lookup(name, key)
		if err == nil && raw != "" {
			*dst = splitTrimmed(raw, sep)
		}
	}
	str := func(dst *string, key string) {
		if err == nil {
			*dst, err = h.lookup(name, key)
		}
	}

	collect(&bf.InputColumns, "Input Columns", ",")
	collect(&bf.OutputColumns, "Output Columns", ",")
	collect(&bf.APIColumns, "API Transaction Fields", ",")
	collect(&bf.CDFlags, "Inflow or Outflow Indicator", ",")
	collect(&bf.PluginArgs, "Plugin Arguments", "\n")

	str(&bf.FilePattern, "Source Filename Pattern")
	str(&bf.SourcePath, "Source Path")
	str(&bf.Ext, "Source Filename Extension")
	str(&bf.Prefix, "Output Filename Prefix")
	str(&bf.OutputExt, "Output Filename Extension")
	str(&bf.Delimiter, "Source CSV Delimiter")
	str(&bf.Encoding, "Encoding")
	str(&bf.DateFormat, "Date Format")
	str(&bf.Plugin, "Plugin")

	if err == nil {
		bf.HeaderRows, err = h.lookupInt(name, "Header Rows")
	}
	if err == nil {
		bf.FooterRows, err = h.lookupInt(name, "Footer Rows")
	}
	if err == nil {
		bf.UseRegex, err = h.lookupBool(name, "Use Regex For Filename")
	}
	if err == nil {
		bf.DateDedupe, err = h.lookupBool(name, "Date De-Duplication")
	}
	if err == nil {
		bf.DeleteOriginal, err = h.lookupBool(name, "Delete Source File")
	}
	if err == nil {
		bf.PayeeToMemo, err = h.lookupBool(name, "Use Payee for Memo")
	}
	if err == nil {
		bf.SaveAccount, err = h.lookupBool(name, "Save YNAB Account")
	}
	if err == nil {
		bf.CurrencyDivisor, err = h.lookupFloat(name, "Currency Conversion Factor")
	}
	if err != nil {
		return nil, err
	}

	// Config files carry tabs as a two-character escape.
	if bf.Delimiter == `\t` {
		bf.Delimiter = "\t"
	}

	if err := bf.validate(); err != nil {
		return nil, err
	}
	return bf, nil
}

// APIToken returns the YNAB access token, or "" when unset.
func (h *Handler) APIToken() string {
	tok, err := h.lookup(ini.DefaultSection, "YNAB API Access Token")
	if err != nil {
		return ""
	}
	return tok
}

func (bf *BankFormat) validate() error {
	if len(bf.OutputColumns) == 0 {
		return fmt.Errorf("format %s: Output Columns must not be empty", bf.Name)
	}
	if len(bf.APIColumns) == 0 {
		return fmt.Errorf("format %s: API Transaction Fields must not be empty", bf.Name)
	}
	if bf.CurrencyDivisor == 0 {
		return fmt.Errorf("format %s: Currency Conversion Factor must not be zero", bf.Name)
	}
	if n := len(bf.CDFlags); n != 0 && n != 3 {
		return fmt.Errorf("format %s: Inflow or Outflow Indicator needs exactly 3 values, got %d", bf.Name, n)
	}
	return nil
}

// lookup implements the two-tier section/DEFAULT resolution. ini would do
// this implicitly; we keep it explicit so a genuinely absent key is a
// distinct, reportable condition.
func (h *Handler) lookup(section, key string) (string, error) {
	if sec, err := h.file.GetSection(section); err == nil && sec.HasKey(key) {
		return sec.Key(key).String(), nil
	}
	if def := h.file.Section(ini.DefaultSection); def.HasKey(key) {
		return def.Key(key).String(), nil
	}
	return "", fmt.Errorf("section %q key %q: %w", section, key, ErrKeyNotFound)
}

func (h *Handler) lookupInt(section, key string) (int, error) {
	raw, err := h.lookup(section, key)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("section %q key %q: %w", section, key, err)
	}
	return v, nil
}

func (h *Handler) lookupFloat(section, key string) (float64, error) {
	raw, err := h.lookup(section, key)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("section %q key %q: %w", section, key, err)
	}
	return v, nil
}

func (h *Handler) lookupBool(section, key string) (bool, error) {
	raw, err := h.lookup(section, key)
	if err != nil {
		return false, err
	}
	v, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return false, fmt.Errorf("section %q key %q: %w", section, key, err)
	}
	return v, nil
}

func splitTrimmed(raw, sep string) []string {
	parts := strings.Split(raw, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
