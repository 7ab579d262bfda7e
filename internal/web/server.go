// Package web provides the HTTP surface: a JSON API over the generation
// pipeline and a small embedded UI.
package web

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/timberland/blocksmith/internal/assembler"
	"github.com/timberland/blocksmith/internal/generate"
	"github.com/timberland/blocksmith/internal/history"
	"github.com/timberland/blocksmith/internal/llm"
	"github.com/timberland/blocksmith/internal/manifest"
	"github.com/timberland/blocksmith/internal/prompt"
	"github.com/timberland/blocksmith/internal/validator"
)

// Server holds the API handlers and their dependencies. History is
// optional; its endpoint reports empty when absent.
type Server struct {
	gen     *generate.Generator
	store   *manifest.Store
	factory llm.ClientProvider
	history *history.Store
}

// NewServer creates the web server.
func NewServer(gen *generate.Generator, store *manifest.Store, factory llm.ClientProvider, hist *history.Store) (*Server, error) {
	return &Server{gen: gen, store: store, factory: factory, history: hist}, nil
}

//go:embed templates/*.html
var templatesFS embed.FS

// Routes returns the router for the API and UI.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleIndex)
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/structure", s.handleStructure)
	mux.HandleFunc("POST /api/assemble", s.handleAssemble)
	mux.HandleFunc("POST /api/decompose", s.handleDecompose)
	mux.HandleFunc("POST /api/validate", s.handleValidate)
	mux.HandleFunc("GET /api/manifest", s.handleManifest)
	mux.HandleFunc("POST /api/manifest/rebuild", s.handleManifestRebuild)
	mux.HandleFunc("GET /api/manifest/stats", s.handleManifestStats)
	mux.HandleFunc("GET /api/match", s.handleMatch)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m, err := s.store.Get()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := tmpl.Execute(w, m.Stats()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generate.Request
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.gen.Generate(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	var req generate.Request
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.gen.GenerateStructure(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAssemble(w http.ResponseWriter, r *http.Request) {
	var tree assembler.Tree
	if !decodeBody(w, r, &tree) {
		return
	}
	res, err := s.gen.AssembleTree(r.Context(), &tree)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDecompose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	m, err := s.store.Get()
	if err != nil {
		writeError(w, err)
		return
	}
	dec := prompt.NewDecomposer(s.factory).Decompose(r.Context(), req.Prompt, m)
	writeJSON(w, http.StatusOK, dec)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Markup string `json:"markup"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	m, err := s.store.Get()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, validator.New(m).Validate(req.Markup))
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.Get()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleManifestRebuild(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.Regenerate()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Stats())
}

func (s *Server) handleManifestStats(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.Get()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Stats())
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing q parameter"})
		return
	}
	m, err := s.store.Get()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prompt.Match(m, q))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, []history.Record{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := s.history.List(r.Context(), r.URL.Query().Get("caller"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type errorBody struct {
	Error string   `json:"error"`
	Kind  llm.Kind `json:"kind,omitempty"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// writeError maps classified pipeline errors to status codes; anything
// unclassified is a plain internal error.
func writeError(w http.ResponseWriter, err error) {
	var e *llm.Error
	if !errors.As(err, &e) {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch e.Kind {
	case llm.KindQuota:
		status = http.StatusTooManyRequests
	case llm.KindAccess:
		status = http.StatusForbidden
	case llm.KindAuth:
		status = http.StatusUnauthorized
	case llm.KindConfig:
		status = http.StatusBadRequest
	case llm.KindProvider:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorBody{Error: e.Message, Kind: e.Kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("web: response encode failed")
	}
}
