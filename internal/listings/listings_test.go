package listings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-sentinel/internal/store"
)

const nseCSV = "SYMBOL,NAME OF COMPANY, ISIN NUMBER\n" +
	"RELIANCE,Reliance Industries,INE002A01018\n" +
	"TCS,Tata Consultancy, ine467b01029 \n" +
	"NSEONLY,Only On NSE,INE000N00001\n" +
	"BLANK,No Isin,\n"

const bseCSV = "\ufeffSecurity Code,Security Id,NAME OF COMPANY,ISIN No\n" +
	"500325,RELIANCE,Reliance Industries Ltd,INE002A01018\n" +
	"532540,TCS,TCS Ltd,INE467B01029\n" +
	"999999,BSEONLY,Only On BSE,INE000B00001\n" +
	"111111,NANCO,Bad Isin,nan\n"

func mustParse(t *testing.T, s string) *Table {
	t.Helper()
	tbl, err := ParseCSV(strings.NewReader(s))
	require.NoError(t, err)
	return tbl
}

func TestParseCSV(t *testing.T) {
	tbl := mustParse(t, bseCSV)
	assert.Equal(t, "Security Code", tbl.Header[0])
	assert.Len(t, tbl.Rows, 4)

	short := mustParse(t, "A,B,C\n1,2\n")
	assert.Equal(t, []string{"1", "2", ""}, short.Rows[0])

	_, err := ParseCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestFindISINColumn(t *testing.T) {
	col, err := FindISINColumn(mustParse(t, nseCSV), "NSE")
	require.NoError(t, err)
	assert.Equal(t, 2, col)

	_, err = FindISINColumn(mustParse(t, "SYMBOL,NAME\nA,B\n"), "NSE")
	assert.ErrorContains(t, err, "NSE")
}

func TestReconcile(t *testing.T) {
	res, err := Reconcile(mustParse(t, nseCSV), mustParse(t, bseCSV))
	require.NoError(t, err)

	assert.Equal(t, Summary{Total: 4, NSEOnly: 1, BSEOnly: 1, Both: 2}, res.Summary)

	require.Len(t, res.NSEOnly.Rows, 1)
	assert.Equal(t, "NSEONLY", res.NSEOnly.Rows[0][0])
	assert.Equal(t, "NSE_ONLY", res.NSEOnly.Rows[0][res.NSEOnly.Column("LISTING_SOURCE")])

	require.Len(t, res.BSEOnly.Rows, 1)
	assert.Equal(t, "BSEONLY", res.BSEOnly.Rows[0][1])

	both := res.Both
	require.Len(t, both.Rows, 2)
	assert.GreaterOrEqual(t, both.Column("NAME OF COMPANY_NSE"), 0)
	assert.GreaterOrEqual(t, both.Column("NAME OF COMPANY_BSE"), 0)
	assert.Equal(t, -1, both.Column("NAME OF COMPANY"))
	assert.GreaterOrEqual(t, both.Column("ISIN_CLEAN"), 0)
	assert.Equal(t, "INE467B01029", both.Rows[1][both.Column("ISIN_CLEAN")])
	assert.Equal(t, "BOTH", both.Rows[0][both.Column("LISTING_SOURCE")])

	all := res.All
	assert.Len(t, all.Rows, 4)
	sym, code := all.Column("SYMBOL"), all.Column("Security Code")
	require.GreaterOrEqual(t, sym, 0)
	require.GreaterOrEqual(t, code, 0)
	// BSE-only row has no NSE symbol.
	assert.Equal(t, "", all.Rows[1][sym])
	assert.Equal(t, "999999", all.Rows[1][code])
}

func TestReconcileMissingISIN(t *testing.T) {
	_, err := Reconcile(mustParse(t, "SYMBOL\nA\n"), mustParse(t, bseCSV))
	assert.Error(t, err)
}

func TestFindNSECSVLink(t *testing.T) {
	page := `<html><body>
<a href="/other.pdf">Other</a>
<a href="/content/equities/EQUITY_L.csv">Securities available for Equity segment (.csv)</a>
</body></html>`
	link, err := FindNSECSVLink("https://www.nseindia.com/market-data/page", strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "https://www.nseindia.com/content/equities/EQUITY_L.csv", link)

	_, err = FindNSECSVLink("https://x", strings.NewReader("<a href='/a.csv'>nothing</a>"))
	assert.ErrorIs(t, err, ErrNSELinkNotFound)
}

func TestRunDownloadsAndWrites(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Write([]byte(`<a href="/files/EQUITY_L.csv">Securities available for Equity segment (.csv)</a>`))
		case "/files/EQUITY_L.csv":
			w.Write([]byte(nseCSV))
		case "/bse.csv":
			w.Write([]byte(bseCSV))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := store.Default()
	cfg.Listings.NSEPageURL = srv.URL + "/page"
	cfg.Listings.BSECSVURL = srv.URL + "/bse.csv"
	cfg.Listings.RawDir = filepath.Join(dir, "raw")
	cfg.Listings.ProcessedDir = filepath.Join(dir, "processed")

	sum, err := Run(context.Background(), cfg, false)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Total)

	for _, name := range []string{NSEOnlyFile, BSEOnlyFile, BothFile, AllCompaniesFile} {
		_, err := os.Stat(filepath.Join(cfg.Listings.ProcessedDir, name))
		assert.NoError(t, err, name)
	}
	all, err := ReadCSV(filepath.Join(cfg.Listings.ProcessedDir, AllCompaniesFile))
	require.NoError(t, err)
	assert.Len(t, all.Rows, 4)

	// Second run reuses the raw files.
	srv.Close()
	sum, err = Run(context.Background(), cfg, true)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Both)
}

func TestRunMissingRawFiles(t *testing.T) {
	cfg := store.Default()
	cfg.Listings.RawDir = t.TempDir()
	cfg.Listings.ProcessedDir = t.TempDir()
	_, err := Run(context.Background(), cfg, true)
	assert.ErrorContains(t, err, "file not found")
}
