// Package mapping persists which remote budget and account each bank
// format uploads to, so the user is only asked once.
package mapping

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Entry ties a bank format to a YNAB budget/account pair. Either both ids
// are set or the entry is unset.
type Entry struct {
	BudgetID  string `yaml:"budget_id"`
	AccountID string `yaml:"account_id"`
}

// Set reports whether the entry points at an account.
func (e Entry) Set() bool { return e.BudgetID != "" && e.AccountID != "" }

// Store is the bank-name → Entry map backed by a YAML file.
type Store struct {
	path    string
	Entries map[string]Entry
}

// Load reads the store at path. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	s := &Store{path: path, Entries: make(map[string]Entry)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading account mappings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.Entries); err != nil {
		return nil, fmt.Errorf("parsing account mappings: %w", err)
	}
	if s.Entries == nil {
		s.Entries = make(map[string]Entry)
	}
	return s, nil
}

// Get returns the entry for a bank, zero when absent.
func (s *Store) Get(bank string) Entry { return s.Entries[bank] }

// Put records an entry for a bank.
func (s *Store) Put(bank string, e Entry) { s.Entries[bank] = e }

// Reset clears the entry for a bank.
func (s *Store) Reset(bank string) { s.Entries[bank] = Entry{} }

// Save writes the store back to its file.
func (s *Store) Save() error {
	data, err := yaml.Marshal(s.Entries)
	if err != nil {
		return fmt.Errorf("marshaling account mappings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing account mappings: %w", err)
	}
	return nil
}
