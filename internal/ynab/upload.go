package ynab

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/mokshasoul/bank2ynab/internal/mapping"
	"github.com/mokshasoul/bank2ynab/internal/prompt"
)

// API is the subset of Client the uploader needs.
type API interface {
	ListBudgets() ([]Budget, error)
	ListAccounts(budgetID string) ([]Account, error)
	PostTransactions(budgetID string, txns []Transaction) (*PostResult, error)
}

// Picker selects one option from a list, interactively or otherwise.
type Picker interface {
	Pick(msg string, options []prompt.Option) (string, error)
}

// Uploader resolves bank → budget/account mappings and posts each bank's
// transactions to the right budget.
type Uploader struct {
	api         API
	store       *mapping.Store
	picker      Picker
	saveAccount func(bank string) bool
	log         zerolog.Logger
}

// NewUploader creates an Uploader. saveAccount reports, per bank, whether
// a freshly selected mapping should be persisted; nil persists all.
func NewUploader(api API, store *mapping.Store, picker Picker, saveAccount func(string) bool, log zerolog.Logger) *Uploader {
	if saveAccount == nil {
		saveAccount = func(string) bool { return true }
	}
	return &Uploader{api: api, store: store, picker: picker, saveAccount: saveAccount, log: log}
}

// Run uploads all banks' transactions. Saved mappings that no longer match
// live budgets or accounts are reset and re-selected. A failed post skips
// that budget only.
func (u *Uploader) Run(txns map[string][]Transaction) error {
	if len(txns) == 0 {
		return nil
	}

	u.log.Info().Msg("obtaining budget and account data")
	budgets, err := u.api.ListBudgets()
	if err != nil {
		return fmt.Errorf("listing budgets: %w", err)
	}
	accounts := make(map[string][]Account, len(budgets))
	for _, b := range budgets {
		accs, err := u.api.ListAccounts(b.ID)
		if err != nil {
			return fmt.Errorf("listing accounts for budget %s: %w", b.ID, err)
		}
		accounts[b.ID] = accs
	}

	resolved, err := u.resolveMappings(sortedKeys(txns), budgets, accounts)
	if err != nil {
		return err
	}

	// Stamp account ids and batch per budget.
	perBudget := make(map[string][]Transaction)
	for bank, bankTxns := range txns {
		entry := resolved[bank]
		for i := range bankTxns {
			bankTxns[i].AccountID = entry.AccountID
		}
		perBudget[entry.BudgetID] = append(perBudget[entry.BudgetID], bankTxns...)
	}

	for _, budgetID := range sortedKeys(perBudget) {
		res, err := u.api.PostTransactions(budgetID, perBudget[budgetID])
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			u.log.Error().Int("status", apiErr.StatusCode).Str("body", apiErr.Body).
				Str("budget", budgetID).Msg("upload failed, skipping budget")
			continue
		}
		if err != nil {
			u.log.Error().Err(err).Str("budget", budgetID).Msg("upload failed, skipping budget")
			continue
		}
		u.log.Info().Int("uploaded", res.Uploaded).Int("duplicates", res.Duplicates).
			Str("budget", budgetID).Msg("transactions uploaded")
	}
	return nil
}

func (u *Uploader) resolveMappings(banks []string, budgets []Budget, accounts map[string][]Account) (map[string]mapping.Entry, error) {
	resolved := make(map[string]mapping.Entry, len(banks))
	for _, bank := range banks {
		entry := u.store.Get(bank)
		if entry.Set() && !validEntry(entry, accounts) {
			u.log.Warn().Str("bank", bank).Msg("saved account mapping no longer valid, resetting")
			u.store.Reset(bank)
			entry = mapping.Entry{}
		}
		if entry.Set() {
			u.log.Info().Str("bank", bank).Msg("using saved account mapping")
			resolved[bank] = entry
			continue
		}

		picked, err := u.selectEntry(bank, budgets, accounts)
		if err != nil {
			return nil, err
		}
		resolved[bank] = picked
		if u.saveAccount(bank) {
			u.store.Put(bank, picked)
		} else {
			u.log.Info().Str("bank", bank).Msg("mapping persistence disabled for this bank")
		}
	}

	if err := u.store.Save(); err != nil {
		u.log.Error().Err(err).Msg("could not save account mappings")
	}
	return resolved, nil
}

func (u *Uploader) selectEntry(bank string, budgets []Budget, accounts map[string][]Account) (mapping.Entry, error) {
	budgetOpts := make([]prompt.Option, len(budgets))
	for i, b := range budgets {
		budgetOpts[i] = prompt.Option{Name: b.Name, ID: b.ID}
	}
	msg := fmt.Sprintf("No YNAB budget for transactions from %s set! Pick a budget", bank)
	budgetID, err := u.picker.Pick(msg, budgetOpts)
	if err != nil {
		return mapping.Entry{}, fmt.Errorf("selecting budget for %s: %w", bank, err)
	}

	accs := accounts[budgetID]
	accountOpts := make([]prompt.Option, len(accs))
	for i, a := range accs {
		accountOpts[i] = prompt.Option{Name: a.Name, ID: a.ID}
	}
	msg = fmt.Sprintf("No YNAB account for transactions from %s set! Pick an account", bank)
	accountID, err := u.picker.Pick(msg, accountOpts)
	if err != nil {
		return mapping.Entry{}, fmt.Errorf("selecting account for %s: %w", bank, err)
	}

	return mapping.Entry{BudgetID: budgetID, AccountID: accountID}, nil
}

func validEntry(e mapping.Entry, accounts map[string][]Account) bool {
	accs, ok := accounts[e.BudgetID]
	if !ok {
		return false
	}
	for _, a := range accs {
		if a.ID == e.AccountID {
			return !a.Deleted
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
