package bank

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mokshasoul/bank2ynab/internal/config"
	"github.com/mokshasoul/bank2ynab/internal/ynab"
)

func testFormat(dir string) *config.BankFormat {
	return &config.BankFormat{
		Name:            "TestBank",
		InputColumns:    []string{"Date", "Payee", "Memo", "Outflow", "Inflow"},
		OutputColumns:   []string{"Date", "Payee", "Memo", "Outflow", "Inflow"},
		APIColumns:      []string{"amount", "date", "payee_name", "memo", "import_id"},
		FilePattern:     "export",
		SourcePath:      dir,
		Ext:             ".csv",
		Prefix:          "fixed_",
		OutputExt:       ".csv",
		Delimiter:       ",",
		HeaderRows:      1,
		DateFormat:      "02/01/2006",
		CurrencyDivisor: 1,
	}
}

const fileA = "Date,Payee,Memo,Outflow,Inflow\n01/02/2024,Shop,groceries,12.50,\n02/02/2024,Cafe,coffee,3.20,\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestHandler_Run(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "export.csv", fileA)

	h, err := New(testFormat(dir), NewRegistry(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, h.Run())

	assert.Equal(t, 1, h.FilesProcessed)
	require.Len(t, h.Transactions, 2)
	assert.Equal(t, int64(-12500), h.Transactions[0].Amount)

	// Export written next to the source.
	_, err = os.Stat(filepath.Join(dir, "fixed_export.csv"))
	assert.NoError(t, err)
}

func TestHandler_CrossFileDedupe(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "export_jan.csv", fileA)
	writeFile(t, dir, "export_jan_copy.csv", fileA)

	h, err := New(testFormat(dir), NewRegistry(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, h.Run())

	assert.Equal(t, 2, h.FilesProcessed)
	// Two identical files yield one copy of each row.
	assert.Len(t, h.Transactions, 2)
}

func TestHandler_EmptyFileSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "export_empty.csv", "Date,Payee,Memo,Outflow,Inflow\n")
	writeFile(t, dir, "export_good.csv", fileA)

	h, err := New(testFormat(dir), NewRegistry(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, h.Run())

	// The empty file is skipped without failing the run.
	assert.Equal(t, 1, h.FilesProcessed)
	assert.Len(t, h.Transactions, 2)
}

func TestHandler_UnknownPlugin(t *testing.T) {
	cfg := testFormat(t.TempDir())
	cfg.Plugin = "does-not-exist"

	_, err := New(cfg, NewRegistry(), zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownPlugin)
}

func TestHandler_PreprocessorApplied(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "export.csv", "garbage to be replaced")

	reg := NewRegistry()
	reg.Register("rewriter", func(args []string) (Preprocessor, error) {
		return PreprocessorFunc(func(path string) (string, error) {
			err := os.WriteFile(path, []byte(fileA), 0o644)
			return path, err
		}), nil
	})

	cfg := testFormat(dir)
	cfg.Plugin = "rewriter"

	h, err := New(cfg, reg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, h.Run())
	assert.Len(t, h.Transactions, 2)
}

func TestDiscover_PatternAndPrefix(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "export_feb.csv", "x")
	writeFile(t, dir, "fixed_export_feb.csv", "x") // already-processed output
	writeFile(t, dir, "other.csv", "x")
	writeFile(t, dir, "export_feb.txt", "x")

	files, err := Discover(testFormat(dir), zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "export_feb.csv"), files[0])
}

func TestDiscover_Regex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "stmt-2024-01.csv", "x")
	writeFile(t, dir, "stmt-bad.csv", "x")

	cfg := testFormat(dir)
	cfg.FilePattern = `stmt-\d{4}-\d{2}`
	cfg.UseRegex = true

	files, err := Discover(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0], "stmt-2024-01.csv")
}

func TestDiscover_EmptyPattern(t *testing.T) {
	cfg := testFormat(t.TempDir())
	cfg.FilePattern = ""

	files, err := Discover(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestRegistry_EmptyNameIsIdentity(t *testing.T) {
	pre, err := NewRegistry().Build("", nil)
	require.NoError(t, err)
	path, err := pre.Preprocess("/some/file.csv")
	require.NoError(t, err)
	assert.Equal(t, "/some/file.csv", path)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	f := func([]string) (Preprocessor, error) { return nil, nil }
	r.Register("dup", f)
	assert.Panics(t, func() { r.Register("DUP", f) })
}

func TestDedupe_KeepsOrder(t *testing.T) {
	a := ynab.Transaction{Date: "2024-01-01", Amount: 1000, ImportID: "YNAB:1000:2024-01-01:1"}
	b := ynab.Transaction{Date: "2024-01-02", Amount: 2000, ImportID: "YNAB:2000:2024-01-02:1"}

	out := dedupe([][]ynab.Transaction{{a, b}, {a}, {b, a}})
	assert.Equal(t, []ynab.Transaction{a, b}, out)
}
