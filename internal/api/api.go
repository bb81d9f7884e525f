// Package api provides the HTTP surface of FreeLiao: the companion feed for
// the web view with its respond endpoint, a friends listing, a health check,
// the expiry-sweep trigger and the inbound Twilio webhook mount.
//
// The sweep endpoint exists because the bot never schedules expiry itself; an
// external periodic trigger (cron, systemd timer) POSTs to it.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/freeliao/freeliao/internal/models"
	"github.com/freeliao/freeliao/internal/store"
)

// DefaultAddr is the default listen address for the API server.
const DefaultAddr = ":8080"

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server serves the FreeLiao HTTP API.
type Server struct {
	store   store.Store
	webhook http.HandlerFunc // inbound Twilio webhook, nil when unused
	httpSrv *http.Server
	addr    string
}

// NewServer creates an API server over the given store. webhook may be nil if
// no webhook-based messaging backend is configured.
func NewServer(st store.Store, webhook http.HandlerFunc, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	s := &Server{store: st, webhook: webhook, addr: cfg.Addr}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/feed", s.feedHandler)
	mux.HandleFunc("/respond", s.respondHandler)
	mux.HandleFunc("/friends", s.friendsHandler)
	mux.HandleFunc("/sweep", s.sweepHandler)
	if webhook != nil {
		mux.HandleFunc("/webhook/twilio", webhook)
	}
	s.httpSrv = &http.Server{Addr: cfg.Addr, Handler: mux}
	return s
}

// Handler returns the server's HTTP handler, exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("API server listening", "addr", s.addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("API server failed", "error", err)
		}
	}()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	slog.Info("API server shutting down")
	return s.httpSrv.Shutdown(ctx)
}

// healthHandler provides a health check endpoint for monitoring.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// resolveUserParam resolves the user query parameter (user ID or chat ID).
func (s *Server) resolveUserParam(r *http.Request) (*models.User, error) {
	id := r.URL.Query().Get("user")
	if id == "" {
		return nil, fmt.Errorf("missing user parameter")
	}
	return s.lookupUser(id)
}

// lookupUser resolves an identifier that may be a user ID or a chat ID.
func (s *Server) lookupUser(id string) (*models.User, error) {
	user, err := s.store.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = s.store.GetUserByChatID(id)
		if err != nil {
			return nil, err
		}
	}
	return user, nil
}

// feedHandler returns the active jios visible to a user, newest first. This
// backs the companion web feed.
func (s *Server) feedHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user, err := s.resolveUserParam(r)
	if err != nil {
		slog.Warn("feedHandler user resolution failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("unknown user"))
		return
	}
	if user == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("unknown user"))
		return
	}

	jios, err := s.store.VisibleJios(user.ID)
	if err != nil {
		slog.Error("feedHandler query failed", "error", err, "userID", user.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("failed to load feed"))
		return
	}
	if jios == nil {
		jios = []models.VisibleJio{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(jios))
}

// respondHandler records a viewer's response to a jio from the companion feed.
// The response is upserted on (jio_id, user_id), same as the bot path, so a
// repeat submission overwrites the earlier one.
func (s *Server) respondHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("invalid form data"))
		return
	}

	userParam := r.FormValue("user")
	jioID := r.FormValue("jio")
	kind := models.ResponseKind(r.FormValue("kind"))
	if userParam == "" || jioID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("missing user or jio parameter"))
		return
	}
	if !models.IsValidResponseKind(kind) {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("invalid response kind"))
		return
	}

	user, err := s.lookupUser(userParam)
	if err != nil {
		slog.Error("respondHandler user lookup failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("failed to record response"))
		return
	}
	if user == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("unknown user"))
		return
	}

	jio, err := s.store.GetJio(jioID)
	if err != nil {
		slog.Error("respondHandler jio load failed", "error", err, "jioID", jioID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("failed to record response"))
		return
	}
	if jio == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("unknown jio"))
		return
	}
	if jio.Status != models.JioStatusActive {
		writeJSONResponse(w, http.StatusConflict, models.Error("jio is no longer active"))
		return
	}

	err = s.store.UpsertJioResponse(models.JioResponse{
		JioID:       jio.ID,
		UserID:      user.ID,
		Kind:        kind,
		RespondedAt: time.Now(),
	})
	if err != nil {
		slog.Error("respondHandler upsert failed", "error", err, "jioID", jio.ID, "userID", user.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("failed to record response"))
		return
	}

	slog.Info("feed response recorded", "jioID", jio.ID, "userID", user.ID, "kind", kind)
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{
		"jio_id": jio.ID,
		"kind":   string(kind),
	}))
}

// friendsHandler returns a user's friends with their current presence.
func (s *Server) friendsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user, err := s.resolveUserParam(r)
	if err != nil {
		slog.Warn("friendsHandler user resolution failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("unknown user"))
		return
	}
	if user == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("unknown user"))
		return
	}

	friends, err := s.store.FriendsWithStatus(user.ID)
	if err != nil {
		slog.Error("friendsHandler query failed", "error", err, "userID", user.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("failed to load friends"))
		return
	}
	if friends == nil {
		friends = []models.FriendStatus{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(friends))
}

// sweepHandler runs the expiry procedures. Invoked by the external periodic
// trigger; idempotent, safe to call at any interval.
func (s *Server) sweepHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	now := time.Now()
	expiredJios, err := s.store.ExpireJios(now)
	if err != nil {
		slog.Error("sweepHandler jio expiry failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("sweep failed"))
		return
	}
	expiredStatuses, err := s.store.ExpireStatuses(now)
	if err != nil {
		slog.Error("sweepHandler status expiry failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("sweep failed"))
		return
	}

	slog.Info("expiry sweep complete", "expired_jios", expiredJios, "expired_statuses", expiredStatuses)
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]int64{
		"expired_jios":     expiredJios,
		"expired_statuses": expiredStatuses,
	}))
}
