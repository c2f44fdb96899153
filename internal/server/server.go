// Package server exposes the suggestion pipeline over a small JSON
// HTTP API meant to be called from an external backend.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nudge/internal/config"
	"nudge/internal/index"
	"nudge/internal/llm"
	"nudge/internal/llm/azure"
	"nudge/internal/llm/embed"
	mylog "nudge/internal/log"
	"nudge/internal/models"
	"nudge/internal/rag"
	"nudge/internal/store"
)

const defaultK = 3

type API struct {
	rag *rag.Service
	mgr *index.Manager
	lg  *mylog.Logger
}

func NewAPI(svc *rag.Service, mgr *index.Manager) *API {
	return &API{rag: svc, mgr: mgr, lg: mylog.New()}
}

func (a *API) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.handleHealth)
	mux.HandleFunc("/api/rag/suggest", a.handleSuggest)
	mux.HandleFunc("/api/rag/rebuild-index", a.handleRebuildIndex)
	return mux
}

// Handler returns the fully wrapped HTTP handler.
func (a *API) Handler() http.Handler {
	return logMiddleware(rateLimitMiddleware(a.mux()))
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	indexLoaded := a.mgr.Loaded()
	llmConfigured := azure.Configured()
	status := "healthy"
	if !indexLoaded || !llmConfigured {
		status = "unhealthy"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         status,
		"index_loaded":   indexLoaded,
		"llm_configured": llmConfigured,
	})
}

type suggestRequest struct {
	Query       string               `json:"query"`
	ChatHistory []models.ChatMessage `json:"chat_history"`
	Scratchpad  string               `json:"scratchpad"`
	K           *int                 `json:"k"`
}

func (a *API) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	var req suggestRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "malformed request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "query is required")
		return
	}
	k := defaultK
	if req.K != nil {
		if *req.K < 1 {
			writeError(w, http.StatusBadRequest, "invalid_request", "k must be >= 1")
			return
		}
		k = *req.K
	}
	for i, m := range req.ChatHistory {
		if !m.Role.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_request",
				fmt.Sprintf("chat_history[%d].role must be user or assistant", i))
			return
		}
	}

	result, err := a.rag.GenerateSuggestion(r.Context(), req.Query, req.ChatHistory, req.Scratchpad, k)
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleRebuildIndex(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	if err := a.mgr.Rebuild(r.Context()); err != nil {
		a.lg.Error("index.rebuild_failed", "err", err.Error())
		a.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writePipelineError maps pipeline failures onto the error taxonomy:
// not-ready conditions get 503, everything else is a 500 with the
// underlying cause.
func (a *API) writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, index.ErrNotBuilt), errors.Is(err, index.ErrNoChunks):
		writeError(w, http.StatusServiceUnavailable, "not_ready", err.Error())
	case errors.Is(err, rag.ErrNoCredentials), errors.Is(err, azure.ErrMissingCredentials):
		writeError(w, http.StatusServiceUnavailable, "not_configured", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func writeError(w http.ResponseWriter, status int, errStr, message string) {
	writeJSON(w, status, apiError{Error: errStr, Message: message, Code: status})
}

func authorize(w http.ResponseWriter, r *http.Request) bool {
	tok := os.Getenv("NUDGE_API_TOKEN")
	if tok == "" {
		return true
	}
	hdr := r.Header.Get("Authorization")
	if strings.HasPrefix(hdr, "Bearer ") && strings.TrimSpace(hdr[len("Bearer "):]) == tok {
		return true
	}
	writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
	return false
}

// Run wires the pipeline from the environment and serves until
// SIGINT/SIGTERM. The index is loaded up front when possible; a
// not-ready pipeline still serves (health reports unhealthy).
func Run(addr string) error {
	lg := mylog.New()

	chunks := store.New(config.ChunksDir())
	persist, err := index.NewPersister(config.IndexBackend(), config.IndexDir())
	if err != nil {
		return err
	}

	var emb llm.Embedder
	switch config.EmbedderKind() {
	case "simple":
		emb = embed.NewSimple(0)
	default:
		emb = embed.NewOpenAIFromEnv()
	}
	mgr := index.NewManager(chunks, emb, persist, lg)
	if err := mgr.BuildOrLoad(context.Background()); err != nil {
		lg.Warn("index.startup", "err", err.Error())
	}

	var chat llm.ChatProvider
	if c, err := azure.NewFromEnv(); err != nil {
		lg.Warn("llm.not_configured", "err", err.Error())
	} else {
		chat = c
	}

	api := NewAPI(rag.NewService(mgr, emb, chat), mgr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		lg.Info("server.listen", "addr", addr)
		errs <- srv.ListenAndServe()
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigc:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		return fmt.Errorf("shutdown by signal: %v", sig)
	case err := <-errs:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
