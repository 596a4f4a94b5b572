// Package server exposes the generation pipeline over HTTP for the browser
// front end. Generation streams newline-delimited JSON snapshots so the
// canvas can render the diagram while tokens are still arriving.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"sketchflow/internal/config"
	"sketchflow/internal/diagram"
	"sketchflow/internal/optimize"
	"sketchflow/internal/provider"
	"sketchflow/internal/repair"
	"sketchflow/internal/session"
	"sketchflow/internal/storage"
)

// GeneratorFactory builds a provider client for one request. Swappable in
// tests.
type GeneratorFactory func(ctx context.Context, opts provider.Options) (provider.Generator, error)

type Server struct {
	cfg          *config.Config
	store        storage.Store
	newGenerator GeneratorFactory
}

func New(cfg *config.Config, store storage.Store) *Server {
	return &Server{
		cfg:          cfg,
		store:        store,
		newGenerator: provider.New,
	}
}

// Router builds the gin engine with all API routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), cors.Default())

	api := r.Group("/api")
	{
		api.POST("/generate", s.handleGenerate)
		api.POST("/optimize", s.handleOptimize)
		api.POST("/import", s.handleImport)
		api.GET("/palettes", s.handlePalettes)
		api.GET("/history", s.handleHistoryList)
		api.POST("/history", s.handleHistorySave)
		api.GET("/history/:id", s.handleHistoryGet)
		api.DELETE("/history/:id", s.handleHistoryDelete)
	}
	return r
}

type generateRequest struct {
	Prompt    string `json:"prompt"`
	Image     string `json:"image,omitempty"`
	ImageMIME string `json:"imageMime,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
}

// streamLine is one NDJSON line of a generate response. Snapshot lines carry
// elements only; the final line adds fixes and stats; error lines carry the
// code and message.
type streamLine struct {
	Elements []diagram.Element `json:"elements,omitempty"`
	Done     bool              `json:"done,omitempty"`
	Fixes    []optimize.Fix    `json:"fixes,omitempty"`
	Stats    *optimize.Stats   `json:"stats,omitempty"`
	Raw      string            `json:"raw,omitempty"`
	Error    string            `json:"error,omitempty"`
	Code     string            `json:"code,omitempty"`
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var imageData []byte
	if req.Image != "" {
		var err error
		imageData, err = base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image is not valid base64"})
			return
		}
	}

	opts := provider.Options{
		Provider: s.cfg.AI.Provider,
		APIKey:   s.cfg.AI.APIKey,
		Model:    s.cfg.AI.Model,
		BaseURL:  s.cfg.AI.BaseURL,
	}
	if req.Provider != "" {
		opts.Provider = req.Provider
	}
	if req.Model != "" {
		opts.Model = req.Model
	}

	ctx := c.Request.Context()
	gen, err := s.newGenerator(ctx, opts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Status(http.StatusOK)

	enc := json.NewEncoder(c.Writer)
	writeLine := func(line streamLine) {
		_ = enc.Encode(line)
		c.Writer.Flush()
	}

	sess := session.New(func(elements []diagram.Element) {
		writeLine(streamLine{Elements: elements})
	})

	genReq := provider.Request{
		Prompt:      req.Prompt,
		ImageData:   imageData,
		ImageMIME:   req.ImageMIME,
		Model:       req.Model,
		Temperature: s.cfg.AI.Temperature,
	}
	if err := gen.GenerateDiagram(ctx, genReq, func(chunk string) error {
		sess.Feed(chunk)
		return nil
	}); err != nil {
		code, _ := classifyError(err)
		writeLine(streamLine{Error: err.Error(), Code: code})
		return
	}

	result, err := sess.Finalize()
	if err != nil {
		code, _ := classifyError(err)
		writeLine(streamLine{Error: err.Error(), Code: code})
		return
	}

	writeLine(streamLine{
		Done:     true,
		Elements: result.Elements,
		Fixes:    result.Fixes,
		Stats:    &result.Stats,
		Raw:      result.Raw,
	})
}

type optimizeRequest struct {
	Elements []diagram.Element `json:"elements"`
	Palette  string            `json:"palette,omitempty"`
	Scheme   *optimize.Scheme  `json:"scheme,omitempty"`
}

type optimizeResponse struct {
	Elements  []diagram.Element      `json:"elements"`
	Fixes     []optimize.Fix         `json:"fixes"`
	Overlaps  []optimize.OverlapPair `json:"overlaps"`
	Stats     optimize.Stats         `json:"stats"`
	HadIssues bool                   `json:"hadIssues"`
}

func (s *Server) handleOptimize(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	elements, fixes, hadIssues := optimize.AutoFix(req.Elements)

	// Request-level palette wins; the configured default palette applies when
	// the request names neither a palette nor a scheme.
	palette := req.Palette
	if palette == "" && req.Scheme == nil {
		palette = s.cfg.Defaults.Palette
	}

	switch {
	case req.Scheme != nil:
		elements = optimize.ApplyScheme(elements, *req.Scheme)
	case palette != "":
		p, err := optimize.PaletteByName(palette)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		elements = optimize.ApplyPalette(elements, p)
	}

	c.JSON(http.StatusOK, optimizeResponse{
		Elements:  elements,
		Fixes:     fixes,
		Overlaps:  optimize.DetectOverlaps(elements),
		Stats:     optimize.Summarize(elements),
		HadIssues: hadIssues,
	})
}

func (s *Server) handleImport(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	elements, err := repair.ExtractElements(repair.Normalize(string(body)))
	if err != nil {
		code, status := classifyError(err)
		c.JSON(status, gin.H{"error": err.Error(), "code": code})
		return
	}

	stats := optimize.Summarize(elements)
	c.JSON(http.StatusOK, gin.H{"elements": elements, "stats": stats})
}

func (s *Server) handlePalettes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"palettes": optimize.PaletteNames()})
}

func (s *Server) handleHistoryList(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = n
	}

	entries, err := s.store.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []*storage.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) handleHistorySave(c *gin.Context) {
	var entry storage.Entry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.Save(c.Request.Context(), &entry); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) handleHistoryGet(c *gin.Context) {
	entry, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) handleHistoryDelete(c *gin.Context) {
	err := s.store.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// classifyError maps pipeline errors onto wire codes and HTTP statuses per
// the error taxonomy: transport failures and provider rejections read
// differently to the user than a response that never contained an array.
func classifyError(err error) (code string, status int) {
	var statusErr *provider.StatusError
	var malformed *repair.MalformedError
	switch {
	case errors.Is(err, provider.ErrTransport):
		return "transport_failure", http.StatusBadGateway
	case errors.As(err, &statusErr):
		return "provider_rejected", http.StatusBadGateway
	case errors.Is(err, provider.ErrStream):
		return "stream_error", http.StatusBadGateway
	case errors.Is(err, repair.ErrNoArray):
		return "no_array_found", http.StatusUnprocessableEntity
	case errors.As(err, &malformed):
		return "malformed_json", http.StatusUnprocessableEntity
	default:
		return "internal", http.StatusInternalServerError
	}
}
