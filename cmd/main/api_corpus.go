package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/CTAG07/Drosera/pkg/corpus"
	"github.com/CTAG07/Drosera/pkg/textgen"
)

// CorpusAPI holds the dependencies for the corpus API handlers.
type CorpusAPI struct {
	store  *corpus.Store
	logger *slog.Logger
}

// NewCorpusAPI creates a new instance of the CorpusAPI.
func NewCorpusAPI(store *corpus.Store, logger *slog.Logger) *CorpusAPI {
	return &CorpusAPI{
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/corpora endpoints.
func (c *CorpusAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/corpora", c.handleList)
	mux.HandleFunc("/api/corpora/", c.handleCorpusByName)
}

// UploadRequest carries raw text plus tokenization settings for a corpus
// upload. Mode selects a preset; the delimiter fields override it.
type UploadRequest struct {
	Text              string `json:"text"`
	Mode              string `json:"mode"` // "words" or "sentences"
	SequenceDelimiter string `json:"sequence_delimiter,omitempty"`
	ElementDelimiter  string `json:"element_delimiter,omitempty"`
	FrequencyPattern  string `json:"frequency_pattern,omitempty"`
}

// handleList lists all corpora with their sequence counts.
func (c *CorpusAPI) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	corpora, err := c.store.List(r.Context())
	if err != nil {
		c.logger.Error("Failed to list corpora", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve corpora: %v", err))
		return
	}
	// Convert map to slice for consistent JSON output
	infoList := make([]corpus.Info, 0, len(corpora))
	for _, info := range corpora {
		infoList = append(infoList, info)
	}
	respondWithJSON(w, http.StatusOK, infoList)
}

// handleCorpusByName handles POST (upload) and DELETE for a named corpus.
func (c *CorpusAPI) handleCorpusByName(w http.ResponseWriter, r *http.Request) {

	name := strings.TrimPrefix(r.URL.Path, "/api/corpora/")
	if name == "" || strings.Contains(name, "/") {
		respondWithError(w, http.StatusBadRequest, "Corpus name not specified")
		return
	}

	switch r.Method {
	case http.MethodPost:
		c.handleUpload(w, r, name)
	case http.MethodDelete:
		if err := c.store.Delete(r.Context(), name); err != nil {
			if errors.Is(err, corpus.ErrUnknownCorpus) {
				respondWithError(w, http.StatusNotFound, "Corpus not found")
				return
			}
			c.logger.Error("Failed to remove corpus", "name", name, "error", err)
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to remove corpus: %v", err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "POST, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleUpload tokenizes the request text and merges it into the corpus.
func (c *CorpusAPI) handleUpload(w http.ResponseWriter, r *http.Request, name string) {
	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	if req.Text == "" {
		respondWithError(w, http.StatusBadRequest, "Text is required")
		return
	}

	splitter, err := splitterFor(&req)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	seqs, err := splitter.Split(strings.NewReader(req.Text))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Tokenization failed: %v", err))
		return
	}

	stored := make([]corpus.Sequence, 0, len(seqs))
	for _, s := range seqs {
		stored = append(stored, corpus.Sequence{Tokens: s.Symbols, Weight: s.Weight})
	}

	if err = c.store.AddSequences(r.Context(), name, stored); err != nil {
		c.logger.Error("Failed to add sequences", "name", name, "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to store sequences: %v", err))
		return
	}

	respondWithJSON(w, http.StatusAccepted, map[string]any{
		"corpus":    name,
		"sequences": len(stored),
	})
}

// splitterFor builds a textgen.Splitter from the upload settings.
func splitterFor(req *UploadRequest) (*textgen.Splitter, error) {
	var opts []textgen.SplitterOption

	switch req.Mode {
	case "", "words":
	case "sentences":
		opts = append(opts,
			textgen.WithSequenceDelimiter(`[.!?\n]+`),
			textgen.WithElementDelimiter(`[\s,;:]+`),
		)
	default:
		return nil, fmt.Errorf("unknown tokenization mode %q", req.Mode)
	}

	// Validate user patterns up front; the splitter options panic on bad ones.
	for _, o := range []struct {
		pattern string
		opt     func(string) textgen.SplitterOption
	}{
		{req.SequenceDelimiter, textgen.WithSequenceDelimiter},
		{req.ElementDelimiter, textgen.WithElementDelimiter},
		{req.FrequencyPattern, textgen.WithFrequencyPattern},
	} {
		if o.pattern == "" {
			continue
		}
		if _, err := regexp.Compile(o.pattern); err != nil {
			return nil, fmt.Errorf("invalid delimiter pattern %q: %v", o.pattern, err)
		}
		opts = append(opts, o.opt(o.pattern))
	}

	return textgen.NewSplitter(opts...), nil
}
