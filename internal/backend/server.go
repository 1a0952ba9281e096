package backend

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fentz26/taskboard/internal/models"
	"github.com/fentz26/taskboard/internal/store"
)

// Version is reported by the health endpoint.
var Version = "dev"

// Server provides the HTTP API for taskboard.
type Server struct {
	service *Service
	store   *store.Store
	addr    string
	server  *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(service *Service, st *store.Store, addr string) *Server {
	return &Server{
		service: service,
		store:   st,
		addr:    addr,
	}
}

// Handler returns the request router. Start uses it; tests can mount it on
// an httptest server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Task endpoints
	mux.HandleFunc("/tasks", s.handleTasks)
	mux.HandleFunc("/tasks/", s.handleTaskByID)

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	return mux
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("Starting taskboard daemon on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := HealthResponse{
		OK:      true,
		DB:      "ok",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		health.OK = false
		health.DB = err.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

// handleTasks handles POST /tasks and GET /tasks
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createTask(w, r)
	case http.MethodGet:
		s.listTasks(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleTaskByID handles /tasks/counts and /tasks/{id}/*
func (s *Server) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/tasks/")
	parts := strings.Split(path, "/")

	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "task id required")
		return
	}

	if parts[0] == "counts" && len(parts) == 1 {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.countTasks(w, r)
		return
	}

	taskID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.getTask(w, r, taskID)
	case action == "status" && r.Method == http.MethodPost:
		s.updateStatus(w, r, taskID)
	case action == "comment" && r.Method == http.MethodPost:
		s.updateComment(w, r, taskID)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// --- Task Handlers ---

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	task, err := s.service.CreateTask(req)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, models.TaskResponse{Success: true, Task: task})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status, ok := models.ParseStatus(q.Get("status"))
	if q.Get("status") == "" {
		status, ok = models.TaskStatusOpen, true
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	pageSize, err := intParam(q.Get("page_size"), DefaultPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page_size")
		return
	}

	page, err := s.service.ListTasks(status, offset, pageSize)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (s *Server) countTasks(w http.ResponseWriter, r *http.Request) {
	var statuses []models.TaskStatus
	for _, raw := range r.URL.Query()["status"] {
		st, ok := models.ParseStatus(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		statuses = append(statuses, st)
	}

	counts, err := s.service.CountTasks(statuses)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, models.CountsResponse{Counts: counts})
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request, taskID int64) {
	task, err := s.service.GetTask(taskID)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, models.TaskResponse{Success: true, Task: task})
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request, taskID int64) {
	var req models.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	task, err := s.service.UpdateStatus(taskID, req.NewStatus, req.Comment)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, models.TaskResponse{Success: true, Task: task})
}

func (s *Server) updateComment(w http.ResponseWriter, r *http.Request, taskID int64) {
	var req models.UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	task, err := s.service.UpdateComment(taskID, req.Comment)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, models.TaskResponse{Success: true, Task: task})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrCommentRequired),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidPriority),
		errors.Is(err, ErrNameRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.TaskResponse{Success: false, Message: message})
}
