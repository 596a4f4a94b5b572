package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectChunks(out *[]string) ChunkFunc {
	return func(chunk string) error {
		*out = append(*out, chunk)
		return nil
	}
}

func sseFrame(content string) string {
	payload, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"delta": map[string]string{"content": content}},
		},
	})
	return "data: " + string(payload) + "\n"
}

func TestOpenAIEndpointNormalization(t *testing.T) {
	cases := map[string]string{
		"":                          "https://api.openai.com/v1/chat/completions",
		"https://proxy.local":       "https://proxy.local/v1/chat/completions",
		"https://proxy.local/v1":    "https://proxy.local/v1/chat/completions",
		"https://proxy.local/v1/":   "https://proxy.local/v1/chat/completions",
		"https://proxy.local/v1/chat/completions": "https://proxy.local/v1/chat/completions",
	}
	for baseURL, want := range cases {
		g := NewOpenAIGenerator("key", "gpt-4o", baseURL)
		assert.Equal(t, want, g.endpoint, "base url %q", baseURL)
	}
}

func TestOpenAIGenerateDiagram_Streams(t *testing.T) {
	var gotBody openAIChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseFrame(`[{"type":"rec`))
		fmt.Fprint(w, sseFrame(`tangle"}]`))
		fmt.Fprint(w, "data: [DONE]\n")
	}))
	defer srv.Close()

	g := NewOpenAIGenerator("test-key", "gpt-4o", srv.URL)
	var chunks []string
	err := g.GenerateDiagram(context.Background(), Request{Prompt: "a box"}, collectChunks(&chunks))
	require.NoError(t, err)
	assert.Equal(t, []string{`[{"type":"rec`, `tangle"}]`}, chunks)
	assert.True(t, gotBody.Stream)
	assert.Equal(t, "gpt-4o", gotBody.Model)
}

func TestOpenAIGenerateDiagram_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	g := NewOpenAIGenerator("bad-key", "gpt-4o", srv.URL)
	err := g.GenerateDiagram(context.Background(), Request{Prompt: "x"}, func(string) error { return nil })

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, statusErr.Message, "invalid api key")
}

func TestOpenAIGenerateDiagram_StreamErrorFrame(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sseFrame("partial"))
		fmt.Fprint(w, `data: {"error":{"message":"rate limited mid-stream"}}`+"\n")
	}))
	defer srv.Close()

	g := NewOpenAIGenerator("key", "gpt-4o", srv.URL)
	var chunks []string
	err := g.GenerateDiagram(context.Background(), Request{Prompt: "x"}, collectChunks(&chunks))

	require.ErrorIs(t, err, ErrStream)
	assert.Contains(t, err.Error(), "rate limited mid-stream")
	assert.Equal(t, []string{"partial"}, chunks)
}

func TestOpenAIGenerateDiagram_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	g := NewOpenAIGenerator("key", "gpt-4o", srv.URL)
	err := g.GenerateDiagram(context.Background(), Request{Prompt: "x"}, func(string) error { return nil })
	assert.ErrorIs(t, err, ErrTransport)
}

func TestOpenAIGenerateDiagram_RequiresKeyAndModel(t *testing.T) {
	g := NewOpenAIGenerator("", "gpt-4o", "")
	err := g.GenerateDiagram(context.Background(), Request{Prompt: "x"}, func(string) error { return nil })
	assert.ErrorContains(t, err, "api key")

	g = NewOpenAIGenerator("key", "", "")
	err = g.GenerateDiagram(context.Background(), Request{Prompt: "x"}, func(string) error { return nil })
	assert.ErrorContains(t, err, "model")
}

func TestOllamaGenerateDiagram_Streams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)

		var req ollamaGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.True(t, req.Stream)

		fmt.Fprintln(w, `{"response":"[{\"id\":"}`)
		fmt.Fprintln(w, `{"response":"\"a\"}]"}`)
		fmt.Fprintln(w, `{"response":"","done":true}`)
	}))
	defer srv.Close()

	g := NewOllamaGenerator("llama3", srv.URL)
	var chunks []string
	err := g.GenerateDiagram(context.Background(), Request{Prompt: "a box"}, collectChunks(&chunks))
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, strings.Join(chunks, ""))
}

func TestOllamaGenerateDiagram_ErrorChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintln(w, `{"error":"model \"missing\" not found"}`)
	}))
	defer srv.Close()

	g := NewOllamaGenerator("missing", srv.URL)
	err := g.GenerateDiagram(context.Background(), Request{Prompt: "x"}, func(string) error { return nil })

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Contains(t, statusErr.Message, "not found")
}

func TestOllamaGenerateDiagram_EmptyBodyRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewOllamaGenerator("llama3", srv.URL)
	err := g.GenerateDiagram(context.Background(), Request{Prompt: "x"}, func(string) error { return nil })

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestOllamaGenerateDiagram_MidStreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"partial"}`)
		fmt.Fprintln(w, `{"error":"out of memory"}`)
	}))
	defer srv.Close()

	g := NewOllamaGenerator("llama3", srv.URL)
	err := g.GenerateDiagram(context.Background(), Request{Prompt: "x"}, func(string) error { return nil })
	require.ErrorIs(t, err, ErrStream)
	assert.Contains(t, err.Error(), "out of memory")
}

func TestFactory(t *testing.T) {
	ctx := context.Background()

	g, err := New(ctx, Options{Provider: "openai", APIKey: "k", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "openai", g.Name())

	g, err = New(ctx, Options{Provider: "OLLAMA", Model: "llama3"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", g.Name())

	_, err = New(ctx, Options{Provider: "bard"})
	assert.ErrorContains(t, err, "unsupported diagram provider")
}

func TestPromptBuilderMentionsFormat(t *testing.T) {
	pb := &PromptBuilder{}
	prompt := pb.BuildDiagramPrompt("a login flow")
	assert.Contains(t, prompt, "a login flow")
	assert.Contains(t, strings.ToLower(prompt), "json")
}
