package api

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/websocket"
	"github.com/npezzotti/roomchat/internal/config"
	"github.com/npezzotti/roomchat/internal/database"
	"github.com/npezzotti/roomchat/internal/server"
)

// ChatApp is the HTTP gateway: chat sessions over WebSocket, a health check
// and the stats endpoint.
type ChatApp struct {
	log            *log.Logger
	db             database.ChatRepository
	cs             *server.ChatServer
	srv            *http.Server
	upgrader       websocket.Upgrader
	allowedOrigins map[string]struct{}
	maxLineLength  int
}

func NewChatApp(logger *log.Logger, cs *server.ChatServer, db database.ChatRepository, statsHandler http.Handler, cfg *config.Config) *ChatApp {
	s := &ChatApp{
		log:            logger,
		db:             db,
		cs:             cs,
		allowedOrigins: normalizeOrigins(cfg.AllowedOrigins),
		maxLineLength:  cfg.MaxLineLength,
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.serveWs)
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.Handle("GET /debug/vars", statsHandler)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
	)(mux)

	h = s.errorHandler(h)

	s.srv = &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: h,
	}

	return s
}

func (s *ChatApp) Handler() http.Handler {
	return s.srv.Handler
}

func (s *ChatApp) Start() error {
	s.log.Printf("starting HTTP gateway on %s", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *ChatApp) Serve(ln net.Listener) error {
	return s.srv.Serve(ln)
}

// Shutdown stops the HTTP server. Upgraded WebSocket sessions belong to the
// chat server and end with its own Shutdown.
func (s *ChatApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP gateway...")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("gateway shutdown: %w", err)
	}

	return nil
}
