package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/CTAG07/Drosera/pkg/corpus"
	"github.com/CTAG07/Drosera/pkg/ngram"
	"github.com/CTAG07/Drosera/pkg/textgen"
)

// GenerateAPI holds the dependencies for the generation API handlers.
type GenerateAPI struct {
	store  *corpus.Store
	cm     *ConfigManager
	logger *slog.Logger
}

// NewGenerateAPI creates a new instance of the GenerateAPI.
func NewGenerateAPI(store *corpus.Store, cm *ConfigManager, logger *slog.Logger) *GenerateAPI {
	return &GenerateAPI{
		store:  store,
		cm:     cm,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for the /api/generate endpoint.
func (g *GenerateAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/generate", g.handleGenerate)
}

// GenerateRequest carries the model parameters, sampling options, and render
// options for one generation call. Unset fields fall back to the server's
// generate_defaults.
type GenerateRequest struct {
	Corpus string `json:"corpus"`
	Order  int    `json:"order,omitempty"`

	// Bounds applies one "low,high" percentile band to all roles; the
	// per-role fields override it individually.
	Bounds         string `json:"bounds,omitempty"`
	InteriorBounds string `json:"interior_bounds,omitempty"`
	StartBounds    string `json:"start_bounds,omitempty"`
	EndBounds      string `json:"end_bounds,omitempty"`

	// SubBounds adds "low,high" percentile bands at shorter n-gram lengths,
	// keyed by length; a generated n-gram must then sit inside the band at
	// every bounded length, not just its own.
	SubBounds map[int]string `json:"sub_bounds,omitempty"`

	StopProbability *float64 `json:"stop_probability,omitempty"`
	MaxWalkLength   int      `json:"max_walk_length,omitempty"`
	MaxAttempts     int      `json:"max_attempts,omitempty"`

	Count           int     `json:"count,omitempty"`
	Unique          bool    `json:"unique,omitempty"`
	ExcludeTraining bool    `json:"exclude_training,omitempty"`
	Seed            *uint64 `json:"seed,omitempty"`
	TargetLength    int     `json:"target_length,omitempty"`
	CorpusLength    bool    `json:"corpus_length,omitempty"`

	// Mode selects a render preset (words | sentences); the remaining
	// fields override it.
	Mode       string  `json:"mode,omitempty"`
	Separator  *string `json:"separator,omitempty"`
	Capitalize *bool   `json:"capitalize,omitempty"`
	Terminator *string `json:"terminator,omitempty"`
}

// GenerateResponse is the JSON payload returned for a generation call.
type GenerateResponse struct {
	Corpus    string           `json:"corpus"`
	Sequences []string         `json:"sequences"`
	Stats     ngram.ModelStats `json:"stats"`
}

// handleGenerate loads a corpus, builds a model from it, samples sequences,
// and renders them as display text.
func (g *GenerateAPI) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	if req.Corpus == "" {
		respondWithError(w, http.StatusBadRequest, "Corpus name is required")
		return
	}

	defaults := g.cm.Get().Generate
	cfg, count, err := g.modelConfig(&req, defaults)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	seqs, err := g.store.LoadSequences(r.Context(), req.Corpus)
	if err != nil {
		if errors.Is(err, corpus.ErrUnknownCorpus) {
			respondWithError(w, http.StatusNotFound, "Corpus not found")
			return
		}
		g.logger.Error("Failed to load corpus", "name", req.Corpus, "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load corpus: %v", err))
		return
	}

	an, err := ngram.NewAnalyzer[string](cfg.Order)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, s := range seqs {
		if err = an.AddWeighted(s.Tokens, s.Weight); err != nil {
			g.logger.Error("Failed to add corpus sequence", "name", req.Corpus, "error", err)
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to analyze corpus: %v", err))
			return
		}
	}

	model, err := ngram.NewModelFromAnalyzer(cfg, an)
	if err != nil {
		g.respondModelError(w, req.Corpus, err)
		return
	}
	model.SetLogger(g.logger)

	sampler := ngram.NewSampler(model, nil)
	if req.Seed != nil {
		sampler = ngram.NewSeededSampler(model, *req.Seed)
	}

	var opts []ngram.SampleOption
	if req.Unique {
		opts = append(opts, ngram.WithUnique())
	}
	if req.ExcludeTraining {
		opts = append(opts, ngram.WithExcludeTraining())
	}
	if req.TargetLength > 0 {
		opts = append(opts, ngram.WithTargetLength(req.TargetLength))
	}
	if req.CorpusLength {
		opts = append(opts, ngram.WithCorpusLength())
	}

	generated, err := sampler.Sequences(count, opts...)
	if err != nil {
		g.respondModelError(w, req.Corpus, err)
		return
	}

	renderer, err := rendererFor(&req)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	rendered := make([]string, 0, len(generated))
	for _, seq := range generated {
		rendered = append(rendered, renderer.Render(seq))
	}

	respondWithJSON(w, http.StatusOK, GenerateResponse{
		Corpus:    req.Corpus,
		Sequences: rendered,
		Stats:     model.Stats(),
	})
}

// modelConfig merges a request with the server defaults into an ngram.Config.
func (g *GenerateAPI) modelConfig(req *GenerateRequest, defaults *GenerateDefaults) (ngram.Config, int, error) {
	cfg := ngram.Config{
		Order:           defaults.Order,
		StopProbability: defaults.StopProbability,
		MaxWalkLength:   defaults.MaxWalkLength,
		MaxAttempts:     defaults.MaxAttempts,
	}
	if req.Order > 0 {
		cfg.Order = req.Order
	}
	if req.StopProbability != nil {
		cfg.StopProbability = *req.StopProbability
	}
	if req.MaxWalkLength > 0 {
		cfg.MaxWalkLength = req.MaxWalkLength
	}
	if req.MaxAttempts > 0 {
		cfg.MaxAttempts = req.MaxAttempts
	}

	uniform := defaults.Bounds
	if req.Bounds != "" {
		uniform = req.Bounds
	}
	base, err := textgen.ParseBound(uniform)
	if err != nil {
		return cfg, 0, err
	}
	cfg.Bounds = ngram.Bounds{Interior: base, Start: base, End: base}

	for _, rb := range []struct {
		spec string
		dst  *ngram.Bound
	}{
		{req.InteriorBounds, &cfg.Bounds.Interior},
		{req.StartBounds, &cfg.Bounds.Start},
		{req.EndBounds, &cfg.Bounds.End},
	} {
		if rb.spec == "" {
			continue
		}
		if *rb.dst, err = textgen.ParseBound(rb.spec); err != nil {
			return cfg, 0, err
		}
	}

	if len(req.SubBounds) > 0 {
		cfg.SubBounds = make(map[int]ngram.Bounds, len(req.SubBounds))
		for length, spec := range req.SubBounds {
			b, err := textgen.ParseBound(spec)
			if err != nil {
				return cfg, 0, err
			}
			cfg.SubBounds[length] = ngram.Bounds{Interior: b, Start: b, End: b}
		}
	}

	count := defaults.Count
	if req.Count > 0 {
		count = req.Count
	}
	if count < 1 {
		count = 1
	}

	return cfg, count, nil
}

// respondModelError maps engine errors onto HTTP status codes. Requests that
// are well-formed but unsatisfiable for this corpus get a 422.
func (g *GenerateAPI) respondModelError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, ngram.ErrInvalidOrder),
		errors.Is(err, ngram.ErrInvalidBound),
		errors.Is(err, ngram.ErrInvalidWeight):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ngram.ErrNoTrainingData),
		errors.Is(err, ngram.ErrEmptyQualifyingSet),
		errors.Is(err, ngram.ErrNoFeasiblePath),
		errors.Is(err, ngram.ErrInsufficientSequences):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		g.logger.Error("Generation failed", "corpus", name, "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Generation failed: %v", err))
	}
}

// rendererFor builds a textgen.Renderer from the request's render options.
func rendererFor(req *GenerateRequest) (*textgen.Renderer, error) {
	sep, term, capitalize := "", "", true

	switch req.Mode {
	case "", "words":
	case "sentences":
		sep, term = " ", "."
	default:
		return nil, fmt.Errorf("unknown render mode %q", req.Mode)
	}

	if req.Separator != nil {
		sep = *req.Separator
	}
	if req.Terminator != nil {
		term = *req.Terminator
	}
	if req.Capitalize != nil {
		capitalize = *req.Capitalize
	}

	opts := []textgen.RenderOption{
		textgen.WithSeparator(sep),
		textgen.WithTerminator(term),
	}
	if capitalize {
		opts = append(opts, textgen.WithCapitalize())
	}
	return textgen.NewRenderer(opts...), nil
}
