package provider

import (
	"context"
	"errors"
	"fmt"
)

// ErrTransport indicates the network call to start a generation failed
// outright (connectivity, DNS, timeout before any response). Distinguished
// from an HTTP-status rejection so callers can show a different message for
// "no connection" versus "server rejected request".
var ErrTransport = errors.New("provider transport failure")

// ErrStream indicates the upstream source signaled an error mid-stream.
// Fatal to the current generation attempt only.
var ErrStream = errors.New("provider stream error")

// StatusError is returned when the provider rejected the request with a
// non-success HTTP status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider request failed (%d): %s", e.StatusCode, e.Message)
}

// Request describes one diagram generation.
type Request struct {
	// Prompt is the user's natural-language description of the diagram.
	Prompt string

	// ImageData and ImageMIME carry an optional uploaded image for the
	// image-to-diagram path.
	ImageData []byte
	ImageMIME string

	Model       string
	Temperature float64
}

// ChunkFunc is invoked for every text chunk received from the stream, in
// arrival order. Returning an error stops the stream and surfaces the error
// to the caller.
type ChunkFunc func(chunk string) error

// Generator streams diagram JSON from an LLM provider.
type Generator interface {
	Name() string
	// GenerateDiagram sends the request and invokes fn once per received
	// text chunk until the stream ends.
	GenerateDiagram(ctx context.Context, req Request, fn ChunkFunc) error
}
