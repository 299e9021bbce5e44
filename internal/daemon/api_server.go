package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dugout/internal/config"
	"dugout/internal/importer"
	"dugout/internal/logging"
	"dugout/internal/mediastore"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/tasks", srv.handleTasks)
	mux.HandleFunc("/api/tasks/", srv.handleTask)
	mux.HandleFunc("/api/health", srv.handleHealth)
	mux.HandleFunc("/api/sweeps/", srv.handleSweep)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", "address", listener.Addr().String())
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// TaskPayload is the wire form of an import task.
type TaskPayload struct {
	ID          string        `json:"id"`
	GameID      *int64        `json:"game_id,omitempty"`
	Status      string        `json:"status"`
	Attempts    int           `json:"attempts"`
	Progress    float64       `json:"progress"`
	Message     string        `json:"message"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Units       []UnitPayload `json:"units"`
}

// UnitPayload is the wire form of one media unit.
type UnitPayload struct {
	BaseName  string `json:"base_name"`
	Kind      string `json:"kind"`
	Processed bool   `json:"processed"`
	Error     string `json:"error,omitempty"`
}

func taskToPayload(task *mediastore.ImportTask) TaskPayload {
	payload := TaskPayload{
		ID:          task.ID,
		GameID:      task.GameID,
		Status:      string(task.Status),
		Attempts:    task.Attempts,
		Progress:    task.Progress(),
		Message:     task.Message(),
		Error:       task.ErrorMessage,
		CreatedAt:   task.CreatedAt,
		StartedAt:   task.StartedAt,
		CompletedAt: task.CompletedAt,
	}
	for _, unit := range task.Units {
		payload.Units = append(payload.Units, UnitPayload{
			BaseName:  unit.BaseName,
			Kind:      string(unit.Kind),
			Processed: unit.Processed,
			Error:     unit.ErrorMessage,
		})
	}
	return payload
}

type enqueueRequest struct {
	GameID *int64 `json:"game_id"`
	Files  []struct {
		Path string `json:"path"`
		Name string `json:"name"`
	} `json:"files"`
}

func (s *apiServer) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTasks(w, r)
	case http.MethodPost:
		s.enqueueTask(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) listTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var gameID *int64
	if raw := strings.TrimSpace(query.Get("game")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid game id")
			return
		}
		gameID = &parsed
	}

	statuses := []mediastore.Status{mediastore.StatusQueued, mediastore.StatusInProgress}
	if all := query.Get("all"); all == "1" || strings.EqualFold(all, "true") {
		statuses = nil
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, ok := mediastore.ParseStatus(raw)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown status")
			return
		}
		statuses = []mediastore.Status{status}
	}

	tasks, err := s.daemon.store.ListTasks(r.Context(), gameID, statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	payloads := make([]TaskPayload, 0, len(tasks))
	for _, task := range tasks {
		payloads = append(payloads, taskToPayload(task))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"tasks": payloads})
}

func (s *apiServer) enqueueTask(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	files := make([]importer.IntakeFile, 0, len(req.Files))
	for _, file := range req.Files {
		files = append(files, importer.IntakeFile{Path: file.Path, Name: file.Name})
	}
	units, err := importer.GroupUnits(files)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	task, err := s.daemon.Enqueue(r.Context(), req.GameID, units)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, taskToPayload(task))
}

func (s *apiServer) handleTask(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	if rest == "" {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}

	if id, ok := strings.CutSuffix(rest, "/restart"); ok {
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.restartTask(w, r, id)
		return
	}

	if strings.Contains(rest, "/") {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	task, err := s.daemon.store.GetTask(r.Context(), rest)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if task == nil {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	s.writeJSON(w, http.StatusOK, taskToPayload(task))
}

func (s *apiServer) restartTask(w http.ResponseWriter, r *http.Request, id string) {
	task, err := s.daemon.RestartTask(r.Context(), id)
	if errors.Is(err, ErrTaskFinished) {
		s.writeError(w, http.StatusConflict, "task already finished")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if task == nil {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	s.writeJSON(w, http.StatusOK, taskToPayload(task))
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	health, depth, err := s.daemon.Health(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"total":       health.Total,
		"queued":      health.Queued,
		"in_progress": health.InProgress,
		"completed":   health.Completed,
		"failed":      health.Failed,
		"queue_depth": depth,
	})
}

func (s *apiServer) handleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/sweeps/")
	if name == "" || strings.Contains(name, "/") {
		s.writeError(w, http.StatusNotFound, "unknown sweep")
		return
	}
	if err := s.daemon.RunSweep(r.Context(), name); err != nil {
		if strings.HasPrefix(err.Error(), "unknown sweep") {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"sweep": name, "result": "ok"})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
