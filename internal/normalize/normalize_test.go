package normalize

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mokshasoul/bank2ynab/internal/config"
	"github.com/mokshasoul/bank2ynab/internal/table"
)

func testFormat() *config.BankFormat {
	return &config.BankFormat{
		Name:            "TestBank",
		InputColumns:    []string{"Date", "Payee", "Memo", "Outflow", "Inflow"},
		OutputColumns:   []string{"Date", "Payee", "Memo", "Outflow", "Inflow"},
		APIColumns:      []string{"amount", "date", "payee_name", "memo", "import_id"},
		DateFormat:      "02/01/2006",
		CurrencyDivisor: 1,
	}
}

func run(t *testing.T, rows [][]string, cfg *config.BankFormat) *Result {
	t.Helper()
	res, err := New(zerolog.Nop()).Run(table.New(rows), cfg)
	require.NoError(t, err)
	return res
}

func TestRun_Basic(t *testing.T) {
	res := run(t, [][]string{
		{"01/02/2024", "SHOP & SONS", "groceries", "12.50", ""},
		{"02/02/2024", "EMPLOYER", "salary", "", "1000"},
	}, testFormat())

	require.Len(t, res.Rows, 2)

	first := res.Rows[0]
	assert.Equal(t, "2024-02-01", first.Date)
	assert.Equal(t, "Shop Sons", first.Payee)
	assert.Equal(t, "Groceries", first.Memo)
	assert.Equal(t, int64(-12500), first.Amount)

	second := res.Rows[1]
	assert.Equal(t, int64(1000000), second.Amount)
	assert.True(t, second.Outflow.IsZero())
}

func TestRun_AmountInvariant(t *testing.T) {
	res := run(t, [][]string{
		{"01/02/2024", "A", "", "12.34", ""},
		{"01/02/2024", "B", "", "", "56.78"},
		{"02/02/2024", "C", "", "-9.99", ""}, // negative outflow becomes inflow
	}, testFormat())

	for _, row := range res.Rows {
		net := row.Inflow.Sub(row.Outflow).Mul(decimal.NewFromInt(1000)).Round(0).IntPart()
		assert.Equal(t, row.Amount, net)
		// Exactly one of inflow/outflow nonzero.
		assert.True(t, row.Inflow.IsZero() != row.Outflow.IsZero())
	}
}

func TestRun_Idempotent(t *testing.T) {
	rows := [][]string{
		{"01/02/2024", "Shop", "", "12.50", ""},
		{"", "Cafe", "", "3.00", ""},
		{"03/02/2024", "Bar", "memo text", "", "40"},
	}
	cfg := testFormat()
	cfg.DateDedupe = true

	copyRows := func() [][]string {
		out := make([][]string, len(rows))
		for i, r := range rows {
			out[i] = append([]string(nil), r...)
		}
		return out
	}

	a := run(t, copyRows(), cfg)
	b := run(t, copyRows(), cfg)
	assert.Equal(t, a.Rows, b.Rows)
	assert.Equal(t, a.Records, b.Records)
}

func TestRun_ImportIDUniqueness(t *testing.T) {
	res := run(t, [][]string{
		{"01/02/2024", "A", "", "10", ""},
		{"01/02/2024", "B", "", "10", ""},
		{"01/02/2024", "C", "", "10", ""},
		{"01/02/2024", "D", "", "20", ""},
	}, testFormat())

	require.Len(t, res.Records, 4)
	assert.Equal(t, "YNAB:-10000:2024-02-01:1", res.Records[0].ImportID)
	assert.Equal(t, "YNAB:-10000:2024-02-01:2", res.Records[1].ImportID)
	assert.Equal(t, "YNAB:-10000:2024-02-01:3", res.Records[2].ImportID)
	assert.Equal(t, "YNAB:-20000:2024-02-01:1", res.Records[3].ImportID)

	seen := make(map[string]bool)
	for _, r := range res.Records {
		assert.False(t, seen[r.ImportID], "duplicate import id %s", r.ImportID)
		seen[r.ImportID] = true
	}
}

func TestRun_DuplicateColumnMerge(t *testing.T) {
	cfg := testFormat()
	cfg.InputColumns = []string{"Date", "Memo", "Outflow", "Memo"}

	res := run(t, [][]string{
		{"01/02/2024", "ab", "5", "cd"},
	}, cfg)

	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Ab Cd", res.Rows[0].Memo)
}

func TestRun_DateCarryForward(t *testing.T) {
	cfg := testFormat()
	cfg.DateFormat = "2006-01-02"
	cfg.DateDedupe = true

	res := run(t, [][]string{
		{"2024-01-01", "A", "", "1", ""},
		{"", "B", "", "2", ""},
		{"2024-01-03", "C", "", "3", ""},
	}, cfg)

	require.Len(t, res.Rows, 3)
	assert.Equal(t, "2024-01-01", res.Rows[0].Date)
	assert.Equal(t, "2024-01-01", res.Rows[1].Date)
	assert.Equal(t, "2024-01-03", res.Rows[2].Date)
}

func TestRun_NoCarryForwardWithoutToggle(t *testing.T) {
	cfg := testFormat()
	cfg.DateFormat = "2006-01-02"

	res := run(t, [][]string{
		{"2024-01-01", "A", "", "1", ""},
		{"", "B", "", "2", ""},
	}, cfg)

	// The dateless row is invalid and removed.
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "A", res.Rows[0].Payee)
}

func TestRun_MonetaryCleaning(t *testing.T) {
	res := run(t, [][]string{
		{"01/02/2024", "A", "", "1,234.56", ""},
		{"01/02/2024", "B", "", "1.234,56", ""},
		{"01/02/2024", "C", "", "EUR 99.50", ""},
	}, testFormat())

	require.Len(t, res.Rows, 3)
	assert.Equal(t, "1234.56", res.Rows[0].Outflow.String())
	assert.Equal(t, "1234.56", res.Rows[1].Outflow.String())
	assert.Equal(t, "99.5", res.Rows[2].Outflow.String())
}

func TestRun_SignFlagResolution(t *testing.T) {
	cfg := testFormat()
	cfg.InputColumns = []string{"Date", "Payee", "CDFlag", "Inflow"}
	cfg.CDFlags = []string{"CDFlag", "C", "D"}

	res := run(t, [][]string{
		{"01/02/2024", "Debit row", "D", "50"},
		{"01/02/2024", "Credit row", "C", "50"},
		{"01/02/2024", "Unflagged row", "X", "25"},
	}, cfg)

	require.Len(t, res.Rows, 3)

	debit := res.Rows[0]
	assert.Equal(t, "50", debit.Outflow.String())
	assert.True(t, debit.Inflow.IsZero())
	assert.Equal(t, int64(-50000), debit.Amount)

	credit := res.Rows[1]
	assert.Equal(t, "50", credit.Inflow.String())
	assert.Equal(t, int64(50000), credit.Amount)

	// Anything other than the outflow flag counts as inflow.
	assert.Equal(t, int64(25000), res.Rows[2].Amount)
}

func TestRun_CurrencyDivisor(t *testing.T) {
	cfg := testFormat()
	cfg.CurrencyDivisor = 100

	res := run(t, [][]string{
		{"01/02/2024", "A", "", "1250", ""},
	}, cfg)

	require.Len(t, res.Rows, 1)
	assert.Equal(t, "12.5", res.Rows[0].Outflow.String())
	assert.Equal(t, int64(-12500), res.Rows[0].Amount)
}

func TestRun_InvalidRowRemoval(t *testing.T) {
	res := run(t, [][]string{
		{"01/02/2024", "Zero", "", "0", "0"},
		{"01/02/2024", "Blank", "", "", ""},
		{"garbage-date", "BadDate", "", "10", ""},
		{"01/02/2024", "Kept", "", "10", ""},
	}, testFormat())

	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Kept", res.Rows[0].Payee)
}

func TestRun_AllRowsInvalid(t *testing.T) {
	_, err := New(zerolog.Nop()).Run(table.New([][]string{
		{"01/02/2024", "Zero", "", "0", "0"},
	}), testFormat())
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestRun_EmptyTable(t *testing.T) {
	_, err := New(zerolog.Nop()).Run(table.New(nil), testFormat())
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestRun_WrongColumnCountRowsDropped(t *testing.T) {
	res := run(t, [][]string{
		{"01/02/2024", "Good", "", "10", ""},
		{"too", "short"},
	}, testFormat())
	require.Len(t, res.Rows, 1)

	_, err := New(zerolog.Nop()).Run(table.New([][]string{{"only", "two"}}), testFormat())
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestRun_PayeeMemoBackfill(t *testing.T) {
	cfg := testFormat()
	cfg.PayeeToMemo = true

	res := run(t, [][]string{
		{"01/02/2024", "OnlyPayee", "", "10", ""},
		{"01/02/2024", "", "OnlyMemo", "20", ""},
	}, cfg)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Onlypayee", res.Rows[0].Memo)  // memo filled from payee
	assert.Equal(t, "Onlymemo", res.Rows[1].Payee)  // payee filled from memo
}

func TestRun_PayeeBackfillAlwaysOn(t *testing.T) {
	res := run(t, [][]string{
		{"01/02/2024", "", "memo only", "10", ""},
	}, testFormat())

	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Memo Only", res.Rows[0].Payee)
	assert.Equal(t, "Memo Only", res.Rows[0].Memo)
}

func TestRun_StringCleaning(t *testing.T) {
	res := run(t, [][]string{
		{"01/02/2024", "CAFÉ*NERO  #42\nLONDON", "", "10", ""},
	}, testFormat())

	require.Len(t, res.Rows, 1)
	// Title case, non-alphanumerics stripped, whitespace collapsed.
	assert.Equal(t, "Caf Nero 42 London", res.Rows[0].Payee)
}

func TestRun_APIRecordFields(t *testing.T) {
	longPayee := strings.Repeat("p", 60)
	longMemo := strings.Repeat("m", 120)

	res := run(t, [][]string{
		{"01/02/2024", longPayee, longMemo, "10", ""},
	}, testFormat())

	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, "", rec.AccountID)
	assert.Equal(t, "2024-02-01", rec.Date)
	assert.Equal(t, int64(-10000), rec.Amount)
	assert.Len(t, rec.PayeeName, 50)
	assert.Len(t, rec.Memo, 100)
	assert.Equal(t, "cleared", rec.Cleared)
	assert.False(t, rec.Approved)
	assert.Equal(t, "", rec.Category)
	assert.Equal(t, "", rec.FlagColor)
}

func TestRun_MissingColumnsAdded(t *testing.T) {
	cfg := testFormat()
	cfg.InputColumns = []string{"Date", "Payee", "Outflow"} // no Memo, no Inflow

	res := run(t, [][]string{
		{"01/02/2024", "Shop", "12.50"},
	}, cfg)

	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(-12500), res.Rows[0].Amount)
	assert.True(t, res.Rows[0].Inflow.IsZero())

	// Export projection still works with the synthesized columns.
	out, err := res.Table.Project(cfg.OutputColumns)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Len())
}

func TestRun_PassthroughColumns(t *testing.T) {
	cfg := testFormat()
	cfg.InputColumns = []string{"Date", "Payee", "Memo", "Outflow", "Inflow", "Balance"}

	res := run(t, [][]string{
		{"01/02/2024", "Shop", "", "10", "", "432.10"},
	}, cfg)

	require.Len(t, res.Rows, 1)
	assert.Equal(t, "432.10", res.Rows[0].Extra["Balance"])
}

func TestRun_CleanedTableForExport(t *testing.T) {
	res := run(t, [][]string{
		{"01/02/2024", "SHOP", "", "1,234.56", ""},
	}, testFormat())

	tbl := res.Table
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "2024-02-01", tbl.Get(0, "Date"))
	assert.Equal(t, "Shop", tbl.Get(0, "Payee"))
	assert.Equal(t, "1234.56", tbl.Get(0, "Outflow"))
	assert.Equal(t, "0", tbl.Get(0, "Inflow"))
}
