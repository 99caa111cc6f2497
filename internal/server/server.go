// Package server exposes the editor over a JSON HTTP API: project CRUD,
// subtitle import/export, cue editing, caption fetching, and batch
// translation runs.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/subweaver/subweaver/internal/batch"
	"github.com/subweaver/subweaver/internal/config"
	"github.com/subweaver/subweaver/internal/cue"
	"github.com/subweaver/subweaver/internal/cuerange"
	"github.com/subweaver/subweaver/internal/exporter"
	"github.com/subweaver/subweaver/internal/fetch"
	"github.com/subweaver/subweaver/internal/logging"
	"github.com/subweaver/subweaver/internal/parser"
	"github.com/subweaver/subweaver/internal/project"
	"github.com/subweaver/subweaver/internal/translate"
)

type Server struct {
	cfg     config.Config
	repo    *project.Repository
	fetcher *fetch.Client
	log     *logging.Logger

	// swapped out in tests to avoid real backend clients
	newTranslator func(ctx context.Context, provider translate.Provider, apiKey string) (translate.Translator, error)

	mu    sync.Mutex
	runs  map[string]*runHandle // project id -> active translation run
	langs *cue.LanguageSet      // built-ins plus custom entries, guarded by mu
}

type runHandle struct {
	driver *batch.Driver
	cancel context.CancelFunc
}

func New(cfg config.Config, repo *project.Repository, log *logging.Logger) *Server {
	return &Server{
		cfg:           cfg,
		repo:          repo,
		fetcher:       fetch.NewClient(log),
		log:           log,
		newTranslator: translate.Factory,
		runs:          make(map[string]*runHandle),
		langs:         cue.NewLanguageSet(),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/health", s.handleHealth)

		api.Get("/projects", s.handleListProjects)
		api.Post("/projects", s.handleCreateProject)
		api.Get("/projects/{id}", s.handleGetProject)
		api.Delete("/projects/{id}", s.handleDeleteProject)

		api.Post("/projects/{id}/import", s.handleImport)
		api.Get("/projects/{id}/export", s.handleExport)

		api.Post("/projects/{id}/cues", s.handleAddCue)
		api.Put("/projects/{id}/cues/{cueID}", s.handleUpdateCue)
		api.Delete("/projects/{id}/cues/{cueID}", s.handleDeleteCue)
		api.Post("/projects/{id}/style", s.handleApplyStyle)

		api.Post("/projects/{id}/translate", s.handleStartTranslation)
		api.Get("/projects/{id}/translate", s.handleTranslationStatus)
		api.Delete("/projects/{id}/translate", s.handleCancelTranslation)

		api.Get("/languages", s.handleListLanguages)
		api.Post("/languages", s.handleAddLanguage)

		api.Post("/fetch", s.handleFetch)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "subweaver",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	p := cue.NewProject(payload.Name)
	if err := s.repo.Save(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProject(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, project.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImport parses raw subtitle text in the named format and replaces
// the project's cues with the result.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProject(w, r)
	if !ok {
		return
	}

	var payload struct {
		Content  string `json:"content"`
		Format   string `json:"format"`
		Filename string `json:"filename,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	format := cue.Format(strings.ToLower(payload.Format))
	if format == "" && payload.Filename != "" {
		format, _ = cue.FormatFromExtension(payload.Filename)
	}

	cues, err := parser.Parse(payload.Content, format, s.log)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p.SetCues(cues)
	if err := s.repo.Save(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProject(w, r)
	if !ok {
		return
	}

	format := cue.Format(strings.ToLower(r.URL.Query().Get("format")))
	if format == "" {
		format = cue.FormatSRT
	}

	content, err := exporter.Export(p.Cues, p, format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", p.Name+cue.ExtensionForFormat(format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

func (s *Server) handleAddCue(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProject(w, r)
	if !ok {
		return
	}

	var payload struct {
		StartTime float64 `json:"startTime"`
		EndTime   float64 `json:"endTime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	added, err := p.AddCue(payload.StartTime, payload.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.repo.Save(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleUpdateCue(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProject(w, r)
	if !ok {
		return
	}

	cueID := chi.URLParam(r, "cueID")
	existing, found := p.CueByID(cueID)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Errorf("cue %s not found", cueID))
		return
	}

	updated := existing
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	updated.ID = cueID

	if err := p.UpdateCue(updated); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.repo.Save(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCue(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProject(w, r)
	if !ok {
		return
	}

	cueID := chi.URLParam(r, "cueID")
	if !p.DeleteCue(cueID) {
		writeError(w, http.StatusNotFound, fmt.Errorf("cue %s not found", cueID))
		return
	}
	if err := s.repo.Save(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleApplyStyle overlays a sparse style onto the cues named by a
// 1-based range expression like "1,3,5-7". An empty range targets the
// project-wide defaults instead.
func (s *Server) handleApplyStyle(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProject(w, r)
	if !ok {
		return
	}

	var payload struct {
		Range string             `json:"range"`
		Style cue.StylingOptions `json:"style"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if strings.TrimSpace(payload.Range) == "" {
		p.GlobalStyles = p.GlobalStyles.Merge(payload.Style)
	} else {
		indices, err := cuerange.Parse(payload.Range, len(p.Cues))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := p.ApplyStyleToCues(indices, payload.Style); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	if err := s.repo.Save(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListLanguages(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	list := s.langs.Languages()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddLanguage(w http.ResponseWriter, r *http.Request) {
	var l cue.Language
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	s.mu.Lock()
	err := s.langs.Add(l)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		URL      string `json:"url"`
		Language string `json:"language"`
		VTT      bool   `json:"vtt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if payload.Language == "" {
		payload.Language = "en"
	}

	result, err := s.fetcher.Fetch(r.Context(), payload.URL, payload.Language, payload.VTT)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"content":  result.Content,
		"language": result.Track.LanguageCode,
		"kind":     result.Track.Kind,
	})
}

type translateRequest struct {
	Provider     string  `json:"provider,omitempty"`
	Language     string  `json:"language,omitempty"`
	Mode         string  `json:"mode,omitempty"`
	Creativity   float64 `json:"creativity,omitempty"`
	CustomPrompt string  `json:"customPrompt,omitempty"`
	APIKey       string  `json:"apiKey,omitempty"`
}

// handleStartTranslation launches a batch run in the background and
// returns immediately; progress is polled via the status endpoint.
func (s *Server) handleStartTranslation(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProject(w, r)
	if !ok {
		return
	}

	var payload translateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	provider := s.resolveProvider(p, payload)
	apiKey := payload.APIKey
	if apiKey == "" {
		apiKey = s.cfg.APIKeyFor(string(provider))
	}

	language := payload.Language
	if language == "" && p.TargetLanguage != nil {
		language = p.TargetLanguage.Name
	}
	if language == "" {
		language = s.cfg.DefaultLanguage
	}
	// a known code resolves to its display name so models see "Japanese
	// (日本語)" rather than "ja"
	s.mu.Lock()
	if l, known := s.langs.ByCode(language); known {
		language = l.Name
	}
	s.mu.Unlock()

	mode := batch.Mode(payload.Mode)
	if mode == "" {
		mode = batch.ModeProcessUntranslated
	}

	creativity := payload.Creativity
	if creativity == 0 {
		creativity = p.AICreativityLevel
	}
	customPrompt := payload.CustomPrompt
	if customPrompt == "" {
		customPrompt = p.AICustomPrompt
	}

	s.mu.Lock()
	if _, active := s.runs[p.ID]; active {
		s.mu.Unlock()
		writeError(w, http.StatusConflict,
			fmt.Errorf("a translation run is already in progress for project %s", p.ID))
		return
	}
	driver := batch.NewDriver(s.log)
	// the run outlives the request, so the backend client is built on the
	// run's context, not the request's
	runCtx, cancel := context.WithCancel(context.Background())
	translator, err := s.newTranslator(runCtx, provider, apiKey)
	if err != nil {
		cancel()
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.runs[p.ID] = &runHandle{driver: driver, cancel: cancel}
	s.mu.Unlock()

	// the run mutates a snapshot loaded at start; only the translations it
	// produced may be persisted, so edits saved by other handlers while the
	// run is in flight are not reverted
	before := make(map[string]string, len(p.Cues))
	for _, c := range p.Cues {
		before[c.ID] = c.TranslatedText
	}

	go func() {
		defer cancel()
		result, runErr := driver.Run(runCtx, p, p.Cues, mode, translator, language, batch.Options{
			Creativity:   creativity,
			CustomPrompt: customPrompt,
		})
		if runErr != nil {
			s.log.Warnw("Translation run failed to start", "project_id", p.ID, "error", runErr)
		} else {
			s.log.Infow("Translation run finished",
				"project_id", p.ID, "state", string(result.State))
		}

		if err := s.writeBackTranslations(p, before); err != nil {
			s.log.Warnw("Saving translations after run failed",
				"project_id", p.ID, "error", err)
		}

		s.mu.Lock()
		delete(s.runs, p.ID)
		s.mu.Unlock()
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"projectId": p.ID,
		"provider":  string(provider),
		"language":  language,
		"mode":      string(mode),
	})
}

func (s *Server) handleTranslationStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	handle, active := s.runs[id]
	s.mu.Unlock()

	if !active {
		writeJSON(w, http.StatusOK, map[string]any{"state": string(batch.StateIdle)})
		return
	}

	snap := handle.driver.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"state":     string(snap.State),
		"processed": snap.Processed,
		"total":     snap.Total,
		"progress":  snap.Progress,
	})
}

func (s *Server) handleCancelTranslation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	handle, active := s.runs[id]
	s.mu.Unlock()

	if !active {
		writeError(w, http.StatusNotFound,
			fmt.Errorf("no translation run in progress for project %s", id))
		return
	}
	handle.cancel()
	w.WriteHeader(http.StatusAccepted)
}

// resolveProvider picks the backend: an explicit request wins, then the
// project's Google toggle, then the configured default.
func (s *Server) resolveProvider(p *cue.Project, payload translateRequest) translate.Provider {
	if payload.Provider != "" {
		return translate.Provider(payload.Provider)
	}
	if p.GoogleTranslateEnabled {
		return translate.ProviderGoogle
	}
	return translate.Provider(s.cfg.DefaultProvider)
}

// writeBackTranslations persists a finished run's output. The current
// project document is re-loaded from the repository and only the
// translated fields the run actually changed are copied onto it,
// find-by-id, so cue edits saved by other handlers during the run survive.
func (s *Server) writeBackTranslations(ran *cue.Project, before map[string]string) error {
	ctx := context.Background()

	fresh, err := s.repo.Load(ctx, ran.ID)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			// project deleted mid-run; nothing to write back to
			return nil
		}
		return err
	}

	changed := 0
	for _, c := range ran.Cues {
		if c.TranslatedText != before[c.ID] {
			if fresh.SetTranslatedText(c.ID, c.TranslatedText) {
				changed++
			}
		}
	}
	if changed == 0 {
		return nil
	}
	return s.repo.Save(ctx, fresh)
}

func (s *Server) loadProject(w http.ResponseWriter, r *http.Request) (*cue.Project, bool) {
	id := chi.URLParam(r, "id")
	p, err := s.repo.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
		} else {
			writeError(w, http.StatusInternalServerError, err)
		}
		return nil, false
	}
	return p, true
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
