// Package normalize turns a raw bank-export table into the canonical
// transaction schema and the matching YNAB API records. The pipeline is a
// fixed sequence of explicit passes; order matters because later steps
// rely on the cleanup done by earlier ones.
package normalize

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mokshasoul/bank2ynab/internal/config"
	"github.com/mokshasoul/bank2ynab/internal/table"
	"github.com/mokshasoul/bank2ynab/internal/ynab"
)

// ErrEmptyTable indicates no rows survived (or entered) normalization.
// Recoverable: the orchestrator logs it and moves to the next file.
var ErrEmptyTable = errors.New("no rows to normalize")

// Canonical column names.
const (
	ColDate    = "Date"
	ColPayee   = "Payee"
	ColMemo    = "Memo"
	ColInflow  = "Inflow"
	ColOutflow = "Outflow"
)

var milli = decimal.NewFromInt(1000)

// Row is one normalized transaction. Exactly one of Inflow/Outflow is
// nonzero, and Amount == round(1000*(Inflow-Outflow)).
type Row struct {
	Date    string // ISO-8601
	Payee   string
	Memo    string
	Inflow  decimal.Decimal
	Outflow decimal.Decimal
	Amount  int64             // milliunits
	Extra   map[string]string // passthrough input columns
}

// Result carries the normalizer's outputs for one file.
type Result struct {
	Rows    []Row
	Records []ynab.Transaction
	Table   *table.Table // cleaned, ready for export projection
}

// Normalizer applies the transform pipeline. Stateless between runs.
type Normalizer struct {
	log zerolog.Logger
}

// New creates a Normalizer logging through log.
func New(log zerolog.Logger) *Normalizer {
	return &Normalizer{log: log}
}

// Run executes the full pipeline on tbl according to cfg.
func (n *Normalizer) Run(tbl *table.Table, cfg *config.BankFormat) (*Result, error) {
	if tbl.Len() == 0 {
		return nil, ErrEmptyTable
	}

	// Step 1: positional column naming. Rows of the wrong width fail.
	if dropped := tbl.SetColumns(cfg.InputColumns); dropped > 0 {
		n.log.Warn().Int("rows", dropped).Int("want_columns", len(cfg.InputColumns)).
			Msg("dropped rows with unexpected column count")
	}
	if tbl.Len() == 0 {
		return nil, fmt.Errorf("every row had the wrong column count: %w", ErrEmptyTable)
	}

	// Step 2: merge duplicate input columns (split logical fields).
	tbl.MergeDuplicates()

	// Step 3: insert columns required downstream but absent from input.
	for _, name := range union(cfg.OutputColumns, cfg.APIColumns) {
		if _, ok := tbl.Index(name); !ok {
			tbl.AddColumn(name)
		}
	}

	count := tbl.Len()

	// Step 4: date normalization with optional carry-forward fill.
	dates := make([]string, count)
	for i := 0; i < count; i++ {
		dates[i] = fixDate(tbl.Get(i, ColDate), cfg.DateFormat)
		if dates[i] == "" && cfg.DateDedupe && i > 0 {
			dates[i] = dates[i-1]
		}
	}

	// Step 5: monetary value cleaning.
	inflow := make([]decimal.Decimal, count)
	outflow := make([]decimal.Decimal, count)
	hasFlow := make([]bool, count)
	for i := 0; i < count; i++ {
		var inOK, outOK bool
		inflow[i], inOK = cleanMoney(tbl.Get(i, ColInflow))
		outflow[i], outOK = cleanMoney(tbl.Get(i, ColOutflow))
		hasFlow[i] = inOK || outOK
	}

	// Step 6: sign-flag resolution. Only the outflow flag is checked; any
	// other indicator value counts as inflow.
	if len(cfg.CDFlags) == 3 {
		indicator, outflowFlag := cfg.CDFlags[0], cfg.CDFlags[2]
		for i := 0; i < count; i++ {
			if tbl.Get(i, indicator) == outflowFlag {
				inflow[i] = inflow[i].Neg()
			}
		}
	}

	// Step 7: amount reconciliation and milliunit conversion.
	divisor := decimal.NewFromFloat(cfg.CurrencyDivisor)
	amounts := make([]int64, count)
	for i := 0; i < count; i++ {
		if inflow[i].IsNegative() {
			outflow[i] = inflow[i].Neg()
			inflow[i] = decimal.Zero
		} else if outflow[i].IsNegative() {
			inflow[i] = outflow[i].Neg()
			outflow[i] = decimal.Zero
		}
		inflow[i] = inflow[i].Div(divisor)
		outflow[i] = outflow[i].Div(divisor)
		amounts[i] = inflow[i].Sub(outflow[i]).Mul(milli).Round(0).IntPart()
	}

	// Steps 8+9: payee/memo backfill, then string cleaning.
	payees := make([]string, count)
	memos := make([]string, count)
	for i := 0; i < count; i++ {
		payee, memo := tbl.Get(i, ColPayee), tbl.Get(i, ColMemo)
		if cfg.PayeeToMemo && memo == "" {
			memo = payee
		}
		if payee == "" {
			payee = memo
		}
		payees[i] = cleanString(payee)
		memos[i] = cleanString(memo)
	}

	// Write cleaned values back so export and passthrough see final data.
	for i := 0; i < count; i++ {
		tbl.Set(i, ColDate, dates[i])
		tbl.Set(i, ColPayee, payees[i])
		tbl.Set(i, ColMemo, memos[i])
		tbl.Set(i, ColInflow, inflow[i].String())
		tbl.Set(i, ColOutflow, outflow[i].String())
	}

	// Step 10, first pass: drop rows without a date, without any monetary
	// value, or netting to zero.
	valid := func(i int) bool {
		return dates[i] != "" && hasFlow[i] && amounts[i] != 0
	}
	tbl.Filter(valid)
	rows := make([]Row, 0, tbl.Len())
	for i := 0; i < count; i++ {
		if !valid(i) {
			continue
		}
		rows = append(rows, Row{
			Date:    dates[i],
			Payee:   payees[i],
			Memo:    memos[i],
			Inflow:  inflow[i],
			Outflow: outflow[i],
			Amount:  amounts[i],
		})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no valid rows after cleaning: %w", ErrEmptyTable)
	}
	for i := range rows {
		rows[i].Extra = extraColumns(tbl, i, cfg)
	}

	// Step 11: API record synthesis with per-(amount,date) import ids.
	records := synthesizeRecords(rows)

	// Step 10, second pass: synthesis cannot resurrect zero amounts, but
	// the invariant is re-checked so the output never violates it.
	final := rows[:0]
	finalRecords := records[:0]
	keep := make([]bool, len(rows))
	for i, r := range rows {
		keep[i] = r.Date != "" && r.Amount != 0
		if keep[i] {
			final = append(final, rows[i])
			finalRecords = append(finalRecords, records[i])
		}
	}
	tbl.Filter(func(i int) bool { return keep[i] })

	n.log.Info().Int("rows", len(final)).Msg("parsed transactions")

	return &Result{Rows: final, Records: finalRecords, Table: tbl}, nil
}

// synthesizeRecords builds one YNAB transaction per row. The import id
// counter starts at 1 per (amount, date) pair, scoped to this table.
func synthesizeRecords(rows []Row) []ynab.Transaction {
	seen := make(map[string]int)
	records := make([]ynab.Transaction, len(rows))
	for i, r := range rows {
		key := fmt.Sprintf("YNAB:%d:%s", r.Amount, r.Date)
		seen[key]++
		records[i] = ynab.Transaction{
			Date:      r.Date,
			Amount:    r.Amount,
			PayeeName: truncate(r.Payee, 50),
			Memo:      truncate(r.Memo, 100),
			Cleared:   "cleared",
			Approved:  false,
			ImportID:  fmt.Sprintf("%s:%d", key, seen[key]),
		}
	}
	return records
}

// extraColumns collects passthrough cells: input columns not consumed by
// the canonical schema.
func extraColumns(tbl *table.Table, row int, cfg *config.BankFormat) map[string]string {
	canonical := map[string]bool{
		ColDate: true, ColPayee: true, ColMemo: true,
		ColInflow: true, ColOutflow: true,
	}
	var extra map[string]string
	for _, col := range tbl.Columns() {
		if canonical[col] {
			continue
		}
		if !contains(cfg.InputColumns, col) {
			continue
		}
		if extra == nil {
			extra = make(map[string]string)
		}
		extra[col] = tbl.Get(row, col)
	}
	return extra
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string(nil), a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
