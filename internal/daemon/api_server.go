package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"inkwell/internal/approval"
	"inkwell/internal/config"
	"inkwell/internal/logging"
	"inkwell/internal/store"
)

type apiServer struct {
	bind   string
	token  string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	bind := strings.TrimSpace(cfg.APIBind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{
		bind:   bind,
		token:  strings.TrimSpace(cfg.APIToken),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// routes builds the handler tree. The redemption endpoint is deliberately
// exempt from bearer auth: the token in the link is the credential, and the
// editor clicks it from an email client with no way to attach headers.
func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(s.token, s.handleStatus))
	mux.HandleFunc("/api/workflows", authMiddleware(s.token, s.handleWorkflows))
	mux.HandleFunc("/api/workflows/", authMiddleware(s.token, s.handleWorkflow))
	mux.HandleFunc("/api/workflows/run", authMiddleware(s.token, s.handleRun))
	mux.HandleFunc("/api/approvals/redeem", s.handleRedeem)
	return mux
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
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

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status, err := s.daemon.Status(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *apiServer) handleWorkflows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var statuses []store.Status
	for _, value := range r.URL.Query()["status"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		status := store.Status(trimmed)
		if !store.ValidStatus(status) {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", trimmed))
			return
		}
		statuses = append(statuses, status)
	}

	workflows, err := s.daemon.store.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]workflowView, 0, len(workflows))
	for _, wf := range workflows {
		views = append(views, newWorkflowView(wf))
	}
	s.writeJSON(w, http.StatusOK, workflowListResponse{Workflows: views})
}

func (s *apiServer) handleWorkflow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/workflows/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	wf, err := s.daemon.store.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if wf == nil {
		s.writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	s.writeJSON(w, http.StatusOK, newWorkflowView(wf))
}

func (s *apiServer) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.daemon.RunAsync(store.TriggerAPI)
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type redeemRequest struct {
	WorkflowID string `json:"workflow_id"`
	Token      string `json:"token"`
	Action     string `json:"action"`
}

func (s *apiServer) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query()
		req = redeemRequest{
			WorkflowID: query.Get("workflow_id"),
			Token:      query.Get("token"),
			Action:     query.Get("action"),
		}
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if strings.TrimSpace(req.WorkflowID) == "" || strings.TrimSpace(req.Token) == "" {
		s.writeError(w, http.StatusBadRequest, "workflow_id and token are required")
		return
	}

	result, err := s.daemon.gate.Redeem(r.Context(), req.WorkflowID, req.Token, req.Action)
	if err != nil {
		s.writeError(w, redeemStatusCode(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func redeemStatusCode(err error) int {
	switch {
	case errors.Is(err, approval.ErrUnknownWorkflow):
		return http.StatusNotFound
	case errors.Is(err, approval.ErrInvalidToken):
		return http.StatusForbidden
	case errors.Is(err, approval.ErrAlreadyUsed),
		errors.Is(err, approval.ErrNotAwaitingApproval):
		return http.StatusConflict
	case errors.Is(err, approval.ErrInvalidAction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
