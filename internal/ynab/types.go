package ynab

import "fmt"

// Transaction is one transaction in the shape the YNAB API accepts.
// AccountID is blank until the upload mapping stamps it in; everything
// else is final once the normalizer emits the record.
type Transaction struct {
	AccountID  string `json:"account_id"`
	Date       string `json:"date"`   // ISO-8601
	Amount     int64  `json:"amount"` // milliunits, signed
	PayeeName  string `json:"payee_name"`
	Memo       string `json:"memo"`
	Category   string `json:"category"`
	Cleared    string `json:"cleared"`
	PayeeID    string `json:"payee_id"`
	CategoryID string `json:"category_id"`
	Approved   bool   `json:"approved"`
	FlagColor  string `json:"flag_color"`
	ImportID   string `json:"import_id"` // idempotency key, YNAB:{amount}:{date}:{n}
}

// Budget is one YNAB budget.
type Budget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Account is one account within a budget.
type Account struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Closed  bool   `json:"closed"`
	Deleted bool   `json:"deleted"`
}

type budgetsResponse struct {
	Data struct {
		Budgets []Budget `json:"budgets"`
	} `json:"data"`
}

type accountsResponse struct {
	Data struct {
		Accounts []Account `json:"accounts"`
	} `json:"data"`
}

type transactionsPayload struct {
	Transactions []Transaction `json:"transactions"`
}

type transactionsResponse struct {
	Data struct {
		TransactionIDs     []string `json:"transaction_ids"`
		DuplicateImportIDs []string `json:"duplicate_import_ids"`
	} `json:"data"`
}

// PostResult summarizes a transaction batch upload.
type PostResult struct {
	Uploaded   int
	Duplicates int
}

// APIError is a non-2xx response from the YNAB API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ynab api: status %d: %s", e.StatusCode, e.Body)
}
