package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-sentinel/internal/api"
	"stock-sentinel/internal/llm/claude"
	"stock-sentinel/internal/llm/gemini"
	"stock-sentinel/internal/llm/noop"
	"stock-sentinel/internal/llm/openai"
	"stock-sentinel/internal/store"
	"stock-sentinel/internal/types"
)

type recordingCompleter struct {
	system, prompt string
	reply          string
	err            error
}

func (r *recordingCompleter) Complete(_ context.Context, system, prompt string) (string, error) {
	r.system, r.prompt = system, prompt
	return r.reply, r.err
}

func TestCausalAnalyzerReturnsRawText(t *testing.T) {
	rc := &recordingCompleter{reply: "Analysis: strong earnings beat.\nDecision: Justified"}
	a := NewCausalAnalyzer(rc, "")

	snap := types.NewSnapshot("XYZ", 103.5, 100, 10)
	out, err := a.Analyze(context.Background(), "XYZ", snap, []types.NewsItem{{Title: "XYZ beats earnings"}})
	require.NoError(t, err)

	assert.Equal(t, rc.reply, out)
	assert.NotEmpty(t, rc.system)
	assert.Contains(t, rc.prompt, "Ticker: XYZ")
	assert.Contains(t, rc.prompt, "XYZ beats earnings")
}

func TestCausalAnalyzerWrapsErrors(t *testing.T) {
	boom := errors.New("quota exceeded")
	a := NewCausalAnalyzer(&recordingCompleter{err: boom}, "custom system")

	_, err := a.Analyze(context.Background(), "XYZ", types.Snapshot{}, nil)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "analyze XYZ")
}

func TestOpenAICompleter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body.Model)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "hello", body.Messages[1].Content)

		w.Write([]byte(`{"choices":[{"message":{"content":"  Decision: Noise \n"}}]}`))
	}))
	defer srv.Close()

	c := openai.NewCompleter(api.NewClient(api.WithBaseURL(srv.URL)), openai.Params{APIKey: "sk-test"})
	out, err := c.Complete(context.Background(), "sys", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Decision: Noise", out)
}

func TestOpenAICompleterErrors(t *testing.T) {
	_, err := openai.NewCompleter(api.NewClient(), openai.Params{}).Complete(context.Background(), "", "x")
	assert.EqualError(t, err, "OPENAI_API_KEY missing")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()
	_, err = openai.NewCompleter(api.NewClient(api.WithBaseURL(srv.URL)), openai.Params{APIKey: "k"}).
		Complete(context.Background(), "", "x")
	assert.EqualError(t, err, "openai: no choices")
}

func TestClaudeCompleter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"))
		assert.Equal(t, "ck-test", r.Header.Get("X-Api-Key"))
		b, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(b), `"system"`)
		assert.Contains(t, string(b), "why did it move")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest",
"content":[{"type":"text","text":"Analysis: order win.\nDecision: Justified"}],
"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":12}}`))
	}))
	defer srv.Close()

	c, err := claude.NewCompleter(claude.Params{APIKey: "ck-test", Endpoint: srv.URL})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "sys", "why did it move")
	require.NoError(t, err)
	assert.Equal(t, "Analysis: order win.\nDecision: Justified", out)
}

func TestClaudeCompleterNoRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"down"}}`))
	}))
	defer srv.Close()

	c, err := claude.NewCompleter(claude.Params{APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "", "x")
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestGeminiCompleter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Analysis: none.\nDecision: Noise"}]}}]}`))
	}))
	defer srv.Close()

	c, err := gemini.NewCompleter(context.Background(), gemini.Params{APIKey: "g-test", Model: "gemini-test", Endpoint: srv.URL})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "sys", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Analysis: none.\nDecision: Noise", out)
}

func TestNewCompleterFactory(t *testing.T) {
	ctx := context.Background()
	cfg := store.Default()

	cfg.LLM.Provider = "NOOP"
	c, err := NewCompleter(ctx, cfg)
	require.NoError(t, err)
	out, _ := c.Complete(ctx, "", "x")
	assert.Equal(t, noop.Response, out)

	cfg.LLM.Provider = "OPENAI"
	c, err = NewCompleter(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &openai.Completer{}, c)

	t.Setenv("CLAUDE_API_KEY", "")
	cfg.LLM.Provider = "CLAUDE"
	_, err = NewCompleter(ctx, cfg)
	assert.Error(t, err)

	t.Setenv("GOOGLE_API_KEY", "")
	cfg.LLM.Provider = "GEMINI"
	_, err = NewCompleter(ctx, cfg)
	assert.Error(t, err)

	cfg.LLM.Provider = "BARD"
	_, err = NewCompleter(ctx, cfg)
	assert.Error(t, err)
}
