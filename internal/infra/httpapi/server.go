// Package httpapi exposes the assistant over a JSON REST API.
//
//	@title			Smart Home Assistant API
//	@version		1.0
//	@description	Natural-language control of lamps, air conditioners and TVs.
//	@BasePath		/
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "smart-home-assistant/docs"
	"smart-home-assistant/internal/application"
	"smart-home-assistant/internal/domain"
)

// Assistant is the part of the orchestrator the API serves.
type Assistant interface {
	SubmitCommand(ctx context.Context, text, hint string) application.CommandReply
	ListDevices(category domain.Category) []domain.Device
	Device(id string) (domain.Device, error)
	ToggleDevice(id string) domain.ActionResult
	Status() application.SystemStatus
	History() []domain.ConversationTurn
}

type Server struct {
	addr        string
	server      *http.Server
	router      *mux.Router
	assistant   Assistant
	logger      *slog.Logger
	mu          sync.Mutex
	running     bool
	rateLimiter *RateLimiter
	authToken   string
}

// NewServer builds the router. rateLimit is requests per minute per client
// on the endpoints that change state; zero disables limiting.
func NewServer(addr, authToken string, rateLimit int, assistant Assistant, logger *slog.Logger) *Server {
	s := &Server{
		addr:      addr,
		router:    mux.NewRouter(),
		assistant: assistant,
		logger:    logger,
		authToken: authToken,
	}
	if rateLimit > 0 {
		s.rateLimiter = NewRateLimiter(rateLimit, time.Minute)
	}

	s.router.Use(s.logRequests)

	s.router.Handle("/api/command", s.protect(s.handleCommand)).Methods(http.MethodPost)
	s.router.HandleFunc("/api/devices", s.handleDevices).Methods(http.MethodGet)
	s.router.HandleFunc("/api/devices/{id}", s.handleDevice).Methods(http.MethodGet)
	s.router.Handle("/api/devices/{id}/toggle", s.protect(s.handleToggle)).Methods(http.MethodPost)
	s.router.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/api/history", s.handleHistory).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	)).Methods(http.MethodGet)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Info("HTTP API starting", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	s.running = true
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := s.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	s.running = false
	return nil
}

// protect applies the rate limit and the optional auth token.
func (s *Server) protect(h http.HandlerFunc) http.Handler {
	var next http.Handler = s.requireToken(h)
	if s.rateLimiter != nil {
		next = s.rateLimiter.Middleware(next)
	}
	return next
}

func (s *Server) requireToken(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authToken != "" {
			token := r.Header.Get("X-Auth-Token")
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token != s.authToken {
				s.logger.Warn("unauthorized request", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

// handleCommand submits a natural-language command.
//
//	@Summary		Submit a command
//	@Description	Runs the command through language detection, intent resolution and execution.
//	@Description	Pipeline failures are normal replies with success=false.
//	@Tags			commands
//	@Accept			json
//	@Produce		json
//	@Param			command	body		CommandRequest	true	"Command text and optional language hint (auto, en, fa)"
//	@Success		200		{object}	CommandResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		429		{object}	ErrorResponse
//	@Router			/api/command [post]
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if req.Command == "" {
		writeError(w, http.StatusBadRequest, "command is required")
		return
	}
	if req.Language == "" {
		req.Language = "auto"
	}

	reply := s.assistant.SubmitCommand(r.Context(), req.Command, req.Language)
	writeJSON(w, http.StatusOK, CommandResponse{
		TurnID:              reply.TurnID,
		Response:            reply.Text,
		Success:             reply.Success,
		LanguageDetected:    string(reply.DetectedLanguage),
		TranslationDegraded: reply.TranslationDegraded,
		ErrorKind:           string(reply.ErrorKind),
	})
}

// handleDevices lists devices grouped by category.
//
//	@Summary	List devices
//	@Tags		devices
//	@Produce	json
//	@Param		category	query		string	false	"lamp, ac or tv"
//	@Success	200			{object}	map[string][]DeviceResponse
//	@Failure	400			{object}	ErrorResponse
//	@Router		/api/devices [get]
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	var category domain.Category
	if q := r.URL.Query().Get("category"); q != "" {
		c, ok := domain.ParseCategory(q)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown category: "+q)
			return
		}
		category = c
	}

	groups := make(map[string][]DeviceResponse)
	for _, c := range domain.Categories {
		if category == "" || c == category {
			groups[c.Plural()] = []DeviceResponse{}
		}
	}
	for _, d := range s.assistant.ListDevices(category) {
		key := d.Category.Plural()
		groups[key] = append(groups[key], toDeviceResponse(d))
	}
	writeJSON(w, http.StatusOK, groups)
}

// handleDevice returns one device.
//
//	@Summary	Get a device
//	@Tags		devices
//	@Produce	json
//	@Param		id	path		string	true	"Device id, e.g. kitchen_lamp"
//	@Success	200	{object}	DeviceResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/devices/{id} [get]
func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	d, err := s.assistant.Device(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toDeviceResponse(d))
}

// handleToggle flips a device's power without intent resolution.
//
//	@Summary	Toggle a device
//	@Tags		devices
//	@Produce	json
//	@Param		id	path		string	true	"Device id"
//	@Success	200	{object}	ActionResponse
//	@Failure	401	{object}	ErrorResponse
//	@Failure	404	{object}	ActionResponse
//	@Failure	429	{object}	ErrorResponse
//	@Router		/api/devices/{id}/toggle [post]
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	result := s.assistant.ToggleDevice(mux.Vars(r)["id"])

	status := http.StatusOK
	if result.ErrorKind == domain.KindNotFound {
		status = http.StatusNotFound
	}
	writeJSON(w, status, toActionResponse(result))
}

// handleStatus summarises the home.
//
//	@Summary	System status
//	@Tags		status
//	@Produce	json
//	@Success	200	{object}	StatusResponse
//	@Router		/api/status [get]
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.assistant.Status()
	resp := StatusResponse{
		TotalDevices: st.TotalDevices,
		PoweredOn:    st.PoweredOn,
		Offline:      st.Offline,
		ByCategory:   make(map[string]int, len(st.ByCategory)),
	}
	for c, n := range st.ByCategory {
		resp.ByCategory[c.Plural()] = n
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleHistory returns the recent conversation turns.
//
//	@Summary	Conversation history
//	@Tags		status
//	@Produce	json
//	@Success	200	{array}	TurnResponse
//	@Router		/api/history [get]
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	turns := s.assistant.History()
	resp := make([]TurnResponse, len(turns))
	for i, t := range turns {
		resp[i] = TurnResponse{
			ID:        t.ID,
			Input:     t.InputText,
			Language:  string(t.DetectedLanguage),
			Response:  t.ResponseText,
			Success:   t.Success,
			Timestamp: t.Timestamp,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"running": running,
		"devices": len(s.assistant.ListDevices("")),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
