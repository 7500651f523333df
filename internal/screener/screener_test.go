package screener

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsHTML = `<html><body>
<nav><a href="/company/compare/">Compare</a><a href="/company/new/">New</a></nav>
<table>
<tr><td><a href="/company/RELIANCE/consolidated/">Reliance</a></td></tr>
<tr><td><a href="/company/tcs/">TCS</a></td></tr>
<tr><td><a href="/company/RELIANCE/">Reliance again</a></td></tr>
<tr><td><a href="/company/">broken</a></td></tr>
<tr><td><a href="/company/INFY/">Infosys</a></td></tr>
<tr><td><a href="/company/HDFCBANK/">HDFC Bank</a></td></tr>
<tr><td><a href="/company/ITC/">ITC</a></td></tr>
<tr><td><a href="/company/SBIN/">SBI</a></td></tr>
<tr><td><a href="/screens/123/">not a company</a></td></tr>
</table></body></html>`

func TestParseTickers(t *testing.T) {
	got, err := ParseTickers(strings.NewReader(resultsHTML), 5, ".NS")
	require.NoError(t, err)
	assert.Equal(t, []string{"RELIANCE.NS", "TCS.NS", "INFY.NS", "HDFCBANK.NS", "ITC.NS"}, got)

	all, err := ParseTickers(strings.NewReader(resultsHTML), 0, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"RELIANCE", "TCS", "INFY", "HDFCBANK", "ITC", "SBIN"}, all)
}

func TestParseTickersEmptyPage(t *testing.T) {
	got, err := ParseTickers(strings.NewReader("<html></html>"), 5, ".NS")
	require.NoError(t, err)
	assert.Empty(t, got)
}

type fixedCompleter struct {
	reply  string
	err    error
	prompt string
}

func (f *fixedCompleter) Complete(_ context.Context, _, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func TestScreen(t *testing.T) {
	var sawSession bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/screen/new/":
			sawSession = true
			http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "abc", Path: "/"})
		case "/screen/raw/":
			assert.Equal(t, "Price to Earning < 15 AND Return on equity > 20", r.URL.Query().Get("query"))
			assert.Equal(t, "3", r.URL.Query().Get("limit"))
			c, err := r.Cookie("csrftoken")
			if assert.NoError(t, err) {
				assert.Equal(t, "abc", c.Value)
			}
			w.Write([]byte(resultsHTML))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	comp := &fixedCompleter{reply: "Output: Price to Earning < 15 AND Return on equity > 20\n"}
	s := New(comp, NewClient(srv.URL), Params{Limit: 3, Suffix: ".NS"})

	got, err := s.Screen(context.Background(), "Companies with PE less than 15 and ROE greater than 20")
	require.NoError(t, err)
	assert.True(t, sawSession)
	assert.Equal(t, []string{"RELIANCE.NS", "TCS.NS", "INFY.NS"}, got)
	assert.Contains(t, comp.prompt, "User Request: Companies with PE less than 15 and ROE greater than 20")
}

func TestScreenErrors(t *testing.T) {
	s := New(&fixedCompleter{}, NewClient("http://127.0.0.1:1"), Params{})
	_, err := s.Screen(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = s.Screen(context.Background(), "cheap banks")
	assert.ErrorIs(t, err, ErrEmptyQuery, "blank translation")

	boom := errors.New("llm down")
	s = New(&fixedCompleter{err: boom}, NewClient("http://127.0.0.1:1"), Params{})
	_, err = s.Screen(context.Background(), "cheap banks")
	assert.ErrorIs(t, err, boom)
}
