// Package ynab talks to the YNAB REST API: listing budgets and accounts,
// and posting normalized transaction batches.
package ynab

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.ynab.com/v1"

// Client is an authenticated YNAB API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	log        zerolog.Logger
}

// NewClient creates a Client using the given personal access token.
func NewClient(token string, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		token:      token,
		log:        log,
	}
}

// NewClientWithBaseURL is NewClient against a non-default endpoint.
// Used by tests.
func NewClientWithBaseURL(token, baseURL string, log zerolog.Logger) *Client {
	c := NewClient(token, log)
	c.baseURL = baseURL
	return c
}

// ListBudgets returns all budgets visible to the token.
func (c *Client) ListBudgets() ([]Budget, error) {
	var resp budgetsResponse
	if err := c.do(http.MethodGet, "/budgets", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data.Budgets, nil
}

// ListAccounts returns all accounts in a budget.
func (c *Client) ListAccounts(budgetID string) ([]Account, error) {
	var resp accountsResponse
	path := fmt.Sprintf("/budgets/%s/accounts", budgetID)
	if err := c.do(http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data.Accounts, nil
}

// PostTransactions uploads a transaction batch to a budget. The API
// treats import_id as an idempotency key, so re-posting the same batch
// reports duplicates instead of creating copies.
func (c *Client) PostTransactions(budgetID string, txns []Transaction) (*PostResult, error) {
	var resp transactionsResponse
	path := fmt.Sprintf("/budgets/%s/transactions", budgetID)
	if err := c.do(http.MethodPost, path, transactionsPayload{Transactions: txns}, &resp); err != nil {
		return nil, err
	}
	return &PostResult{
		Uploaded:   len(resp.Data.TransactionIDs),
		Duplicates: len(resp.Data.DuplicateImportIDs),
	}, nil
}

func (c *Client) do(method, path string, body, out interface{}) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug().Str("method", method).Str("path", path).Msg("ynab api request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
