package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaGenerator streams diagram JSON from a local Ollama instance. The
// response is newline-delimited JSON, one object per chunk.
type OllamaGenerator struct {
	client        *http.Client
	model         string
	endpoint      string
	promptBuilder *PromptBuilder
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Images  []string       `json:"images,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

func NewOllamaGenerator(model, baseURL string) *OllamaGenerator {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = "http://127.0.0.1:11434"
	}
	url = strings.TrimRight(url, "/")
	if !strings.HasSuffix(url, "/api/generate") {
		url += "/api/generate"
	}

	return &OllamaGenerator{
		client: &http.Client{
			Timeout: 300 * time.Second,
		},
		model:         model,
		endpoint:      url,
		promptBuilder: &PromptBuilder{},
	}
}

func (g *OllamaGenerator) Name() string { return "ollama" }

func (g *OllamaGenerator) GenerateDiagram(ctx context.Context, req Request, fn ChunkFunc) error {
	model := req.Model
	if model == "" {
		model = g.model
	}
	if strings.TrimSpace(model) == "" {
		return fmt.Errorf("ollama model is required")
	}

	prompt := g.promptBuilder.BuildDiagramPrompt(req.Prompt)
	var images []string
	if len(req.ImageData) > 0 {
		prompt = g.promptBuilder.BuildImagePrompt(req.Prompt)
		images = []string{base64.StdEncoding.EncodeToString(req.ImageData)}
	}

	reqBody := ollamaGenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: true,
		Images: images,
	}
	if req.Temperature > 0 {
		reqBody.Options = map[string]any{"temperature": req.Temperature}
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(raw))
		var chunk ollamaGenerateChunk
		if json.Unmarshal(raw, &chunk) == nil && chunk.Error != "" {
			msg = chunk.Error
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var chunk ollamaGenerateChunk
		if err := json.Unmarshal(scanner.Bytes(), &chunk); err != nil {
			return fmt.Errorf("%w: %v", ErrStream, err)
		}
		if chunk.Error != "" {
			return fmt.Errorf("%w: %s", ErrStream, chunk.Error)
		}
		if chunk.Response != "" {
			if err := fn(chunk.Response); err != nil {
				return err
			}
		}
		if chunk.Done {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrStream, err)
	}
	return nil
}
