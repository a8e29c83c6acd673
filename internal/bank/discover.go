package bank

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mokshasoul/bank2ynab/internal/config"
)

// Discover returns the source files matching a bank format's filename
// rules. The configured source path is searched when it exists; otherwise
// the user's Downloads directory is used and a warning logged. Files
// already carrying the output prefix are skipped so exports are never
// re-ingested.
func Discover(cfg *config.BankFormat, log zerolog.Logger) ([]string, error) {
	if cfg.FilePattern == "" {
		return nil, nil
	}

	dir, fellBack, err := searchDir(cfg.SourcePath)
	if err != nil {
		return nil, err
	}
	if fellBack && cfg.SourcePath != "" {
		log.Warn().Str("bank", cfg.Name).Str("path", cfg.SourcePath).Str("fallback", dir).
			Msg("source path not found, trying default download directory")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var match func(name string) bool
	if cfg.UseRegex {
		re, err := regexp.Compile(cfg.FilePattern + `.*\.`)
		if err != nil {
			return nil, fmt.Errorf("bad filename pattern for %s: %w", cfg.Name, err)
		}
		match = func(name string) bool { return re.MatchString(name) }
	} else {
		match = func(name string) bool { return strings.HasPrefix(name, cfg.FilePattern) }
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, cfg.Ext) || !match(name) {
			continue
		}
		if cfg.Prefix != "" && strings.Contains(name, cfg.Prefix) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	return files, nil
}

// searchDir resolves the directory to scan, falling back to ~/Downloads.
func searchDir(configured string) (dir string, fellBack bool, err error) {
	if configured != "" {
		if strings.HasPrefix(configured, "~") {
			if home, herr := os.UserHomeDir(); herr == nil {
				configured = filepath.Join(home, strings.TrimPrefix(configured, "~"))
			}
		}
		if info, serr := os.Stat(configured); serr == nil && info.IsDir() {
			return configured, false, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", true, fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, "Downloads"), true, nil
}
