package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rahul/taskflow/internal/agent"
	"github.com/rahul/taskflow/internal/observability"
	"github.com/rahul/taskflow/internal/store"
	"github.com/rs/cors"
)

const (
	DefaultHTTPAddr = ":8080"
	maxBodyBytes    = 1 << 20
)

// HTTPGateway serves the workflow as a stateless JSON API. Clients hold the
// task list between calls.
type HTTPGateway struct {
	Addr     string
	Workflow *agent.Workflow
	Feedback *agent.FeedbackEngine
	Status   *observability.Status

	server *http.Server
}

type planRequest struct {
	Query string `json:"query"`
}

type runRequest struct {
	Query   string         `json:"query"`
	Tasks   store.TaskList `json:"tasks"`
	Approve bool           `json:"approve"`
}

type refineRequest struct {
	Query string         `json:"query"`
	Tasks store.TaskList `json:"tasks"`
}

type refineResponse struct {
	Tasks    store.TaskList `json:"tasks"`
	Feedback []string       `json:"feedback"`
}

type reviewRequest struct {
	Query   string         `json:"query"`
	Tasks   store.TaskList `json:"tasks"`
	Results []store.Result `json:"results"`
}

type reviewResponse struct {
	Evaluations     []agent.Evaluation `json:"evaluations"`
	NeedsRefinement bool               `json:"needs_refinement"`
}

func NewHTTPGateway(addr string, workflow *agent.Workflow, feedback *agent.FeedbackEngine, status *observability.Status) *HTTPGateway {
	if addr == "" {
		addr = DefaultHTTPAddr
	}
	return &HTTPGateway{Addr: addr, Workflow: workflow, Feedback: feedback, Status: status}
}

func (g *HTTPGateway) Name() string {
	return "http"
}

// Router builds the handler tree.
func (g *HTTPGateway) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}).Handler)

	r.Get("/health", g.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/plan", g.handlePlan)
		r.Post("/run", g.handleRun)
		r.Post("/refine", g.handleRefine)
		r.Post("/review", g.handleReview)
	})
	return r
}

func (g *HTTPGateway) Start(ctx context.Context) error {
	g.server = &http.Server{
		Addr:              g.Addr,
		Handler:           g.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP API listening on %s", g.Addr)
		if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return g.Stop()
	}
}

func (g *HTTPGateway) Stop() error {
	if g.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return g.server.Shutdown(ctx)
}

func (g *HTTPGateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	role, task, heartbeat := g.Status.Get()
	resp := map[string]string{
		"status": "healthy",
		"role":   string(role),
		"task":   task,
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if !heartbeat.IsZero() {
		resp["heartbeat"] = heartbeat.UTC().Format(time.RFC3339)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (g *HTTPGateway) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"query": req.Query,
		"tasks": g.Workflow.Plan(r.Context(), req.Query),
	})
}

func (g *HTTPGateway) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" && len(req.Tasks) == 0 {
		respondError(w, http.StatusBadRequest, "query or tasks is required")
		return
	}

	out, err := g.Workflow.Run(r.Context(), req.Query, req.Tasks, req.Approve)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (g *HTTPGateway) handleRefine(w http.ResponseWriter, r *http.Request) {
	var req refineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Tasks.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tasks, feedback := g.Feedback.ReflectAndRefine(req.Tasks, req.Query)
	if feedback == nil {
		feedback = []string{}
	}
	respondJSON(w, http.StatusOK, refineResponse{Tasks: tasks, Feedback: feedback})
}

func (g *HTTPGateway) handleReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Tasks.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, reviewResponse{
		Evaluations:     g.Feedback.Review(req.Tasks, req.Results),
		NeedsRefinement: g.Feedback.NeedsRefinement(req.Tasks, req.Results, req.Query),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("failed to encode response: %v", err)
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
