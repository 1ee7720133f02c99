// Package server hosts the HTTP boundary and the websocket transport:
// anonymous token issuance, room creation, the health endpoint, and the
// per-connection event pumps that feed the room orchestrators.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/coder/quartz"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/quadsuit/pokerroom/internal/engine"
	"github.com/quadsuit/pokerroom/internal/fanout"
	"github.com/quadsuit/pokerroom/internal/room"
	"github.com/quadsuit/pokerroom/internal/session"
)

// Server wires the transport, auth, session directory and room registry.
type Server struct {
	cfg      *Config
	logger   zerolog.Logger
	auth     *Auth
	dir      *session.Directory
	registry *room.Registry
	upgrader websocket.Upgrader

	router     *mux.Router
	httpServer *http.Server
}

// NewServer builds a server from configuration. The clock is injectable
// so integration tests can drive every room timer deterministically.
func NewServer(cfg *Config, logger zerolog.Logger, clock quartz.Clock) *Server {
	dir := session.NewDirectory(logger)
	pub := fanout.NewPublisher(dir, logger)

	s := &Server{
		cfg:      cfg,
		logger:   logger.With().Str("component", "server").Logger(),
		auth:     NewAuth(cfg.Server.JWTSecret),
		dir:      dir,
		registry: room.NewRegistry(clock, pub, logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := cfg.Server.AllowedOrigin
				return origin == "" || origin == "*" || r.Header.Get("Origin") == origin
			},
		},
	}

	s.router = mux.NewRouter()
	s.router.HandleFunc("/api/auth/anonymous", s.handleAnonymousAuth).Methods(http.MethodPost)
	s.router.HandleFunc("/api/rooms", s.handleCreateRoom).Methods(http.MethodPost)
	s.router.HandleFunc("/api/rooms/public", s.handleListRooms).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWebSocket)
	return s
}

// Registry exposes the room registry (tests, admin tooling).
func (s *Server) Registry() *room.Registry { return s.registry }

// Start listens on addr and serves until shutdown.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve runs the HTTP server on an existing listener.
func (s *Server) Serve(listener net.Listener) error {
	s.httpServer = &http.Server{Handler: s.router}
	s.logger.Info().Str("addr", listener.Addr().String()).Msg("Server starting")
	return s.httpServer.Serve(listener)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Starting graceful server shutdown")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

type anonymousAuthRequest struct {
	Username string `json:"username"`
	ClientID string `json:"clientId"`
}

type anonymousAuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// handleAnonymousAuth issues a token bound to an anonymous identity.
func (s *Server) handleAnonymousAuth(w http.ResponseWriter, r *http.Request) {
	var req anonymousAuthRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // empty body is fine
	}

	token, user, err := s.auth.IssueAnonymous(req.Username, req.ClientID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Token issuance failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, anonymousAuthResponse{Token: token, User: user})
}

type createRoomRequest struct {
	Name        string              `json:"name"`
	Variant     engine.Variant      `json:"variant"`
	Stakes      *engine.Stakes      `json:"stakes,omitempty"`
	MaxPlayers  int                 `json:"maxPlayers"`
	Private     bool                `json:"private"`
	Password    string              `json:"password,omitempty"`
	CustomRules *engine.CustomRules `json:"customRules,omitempty"`
}

// handleCreateRoom creates a room owned by the authenticated caller.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	userID, _, err := s.authenticate(r)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	stakes := engine.Stakes{
		SmallBlind: s.cfg.Defaults.SmallBlind,
		BigBlind:   s.cfg.Defaults.BigBlind,
		MinBuyIn:   s.cfg.Defaults.MinBuyIn,
		MaxBuyIn:   s.cfg.Defaults.MaxBuyIn,
	}
	if req.Stakes != nil {
		stakes = *req.Stakes
	}
	if stakes.MinBuyIn > stakes.MaxBuyIn || stakes.SmallBlind < 0 || stakes.BigBlind < 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	maxPlayers := req.MaxPlayers
	if maxPlayers == 0 {
		maxPlayers = s.cfg.Defaults.MaxPlayers
	}

	rules := req.CustomRules
	if rules == nil {
		defaults := engine.DefaultRules()
		defaults.TurnTimeSeconds = s.cfg.Defaults.TurnTimeSeconds
		defaults.WarningTimeSeconds = s.cfg.Defaults.WarningTimeSeconds
		rules = &defaults
	}

	created, err := s.registry.Create(room.CreateOptions{
		Name:        req.Name,
		Variant:     req.Variant,
		Stakes:      stakes,
		MaxPlayers:  maxPlayers,
		Private:     req.Private,
		Password:    req.Password,
		HostID:      userID,
		CustomRules: rules,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Room creation failed")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, created.Info())
}

// handleListRooms returns the public room directory.
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.ListPublic())
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}

// handleWebSocket authenticates and upgrades a client connection, then
// starts its pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, username, err := s.authenticate(r)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	c := newConn(ws, userID, username, s.logger)
	s.dir.Bind(c)

	go c.writePump()
	go c.readPump(s)

	s.logger.Debug().
		Str("user_id", userID).
		Str("username", username).
		Int("sessions", s.dir.Count()).
		Msg("Client connected")
}

// authenticate resolves the caller's identity from the Authorization
// header or, for websocket upgrades, the token query parameter.
func (s *Server) authenticate(r *http.Request) (userID, username string, err error) {
	token := r.URL.Query().Get("token")
	if auth := r.Header.Get("Authorization"); auth != "" {
		const prefix = "Bearer "
		if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
			token = auth[len(prefix):]
		}
	}
	return s.auth.Verify(token)
}

// onDisconnect tears down session state when a connection dies.
func (s *Server) onDisconnect(c *conn) {
	s.dir.Unbind(c)
	if r, ok := s.registry.RoomForUser(c.userID); ok {
		r.HandleDisconnect(c.userID)
	}
	s.logger.Debug().Str("user_id", c.userID).Msg("Client disconnected")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
