package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunc(t *testing.T) {
	var o Oracle = Func(func(_ context.Context, prompt string) (string, error) {
		return "echo: " + prompt, nil
	})
	answer, err := o.Suggest(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", answer)
}

func TestNew(t *testing.T) {
	RegisterModule("echo", func(params parameters.Params) (Oracle, error) {
		prefix, err := parameters.PopParamOr(params, "prefix", "")
		if err != nil {
			return nil, err
		}
		return Func(func(_ context.Context, prompt string) (string, error) { return prefix + prompt, nil }), nil
	})
	assert.Contains(t, Modules(), "echo")
	assert.Contains(t, Modules(), "ollama")

	o, err := New("echo:prefix=>")
	require.NoError(t, err)
	answer, err := o.Suggest(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, ">x", answer)

	_, err = New("echo,prefix=>,bogus=1")
	require.ErrorContains(t, err, "bogus")

	_, err = New("gpt-42")
	require.ErrorContains(t, err, "unknown oracle")

	o, err = New("")
	require.NoError(t, err)
	assert.IsType(t, &Ollama{}, o)
}

func TestOllamaFromConfig(t *testing.T) {
	o, err := New("ollama,url=http://example.com:1234/api/,model=mistral,timeout=30s,max_tokens=100,temperature=0.2")
	require.NoError(t, err)
	ollama := o.(*Ollama)
	assert.Equal(t, "http://example.com:1234/api", ollama.url)
	assert.Equal(t, "mistral", ollama.model)
	assert.Equal(t, 30*time.Second, ollama.client.Timeout)
	assert.Equal(t, 100, ollama.maxTokens)
	assert.Equal(t, 0.2, ollama.temperature)

	_, err = New("ollama,timeout=soon")
	require.Error(t, err)
}

func TestOllamaSuggest(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response": "{\"reasoning\": \"ok\"}", "done": true}`))
	}))
	defer server.Close()

	o := NewOllama().WithURL(server.URL + "/api").WithModel("tiny").WithMaxTokens(42)
	answer, err := o.Suggest(context.Background(), "analyze this")
	require.NoError(t, err)
	assert.Equal(t, `{"reasoning": "ok"}`, answer)
	assert.Equal(t, "tiny", got.Model)
	assert.Equal(t, "analyze this", got.Prompt)
	assert.False(t, got.Stream)
	assert.Equal(t, 42, got.Options.NumPredict)
}

func TestOllamaErrors(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		},
		"malformed": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
		"error field": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"error": "out of memory"}`))
		},
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(handler)
			defer server.Close()
			_, err := NewOllama().WithURL(server.URL).Suggest(context.Background(), "x")
			require.Error(t, err)
		})
	}
}

func TestOllamaCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewOllama().WithURL(server.URL).Suggest(ctx, "x")
	require.Error(t, err)
}
