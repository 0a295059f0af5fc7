package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/swagculi/chatapp/internal/app/registry"
	"github.com/swagculi/chatapp/internal/app/server/handlers"
	"github.com/swagculi/chatapp/internal/core/services"
	"github.com/swagculi/chatapp/pkg/middleware"
)

type Server struct {
	log      *slog.Logger
	mux      *http.ServeMux
	addr     string
	httpSrv  *http.Server
	hub      *registry.Registry
	tokenSvc *services.TokenService

	wsHandler  *handlers.WSHandler
	msgHandler *handlers.MessageHandler
	usrHandler *handlers.UserHandler
}

func NewServer(
	log *slog.Logger,
	app string,
	addr string,
	tokenSvc *services.TokenService,
	presenceSvc *services.PresenceService,
	messageSvc services.IMessageService,
	userSvc *services.UserService,
	hub *registry.Registry,
) *Server {
	s := &Server{
		log:        log,
		mux:        http.NewServeMux(),
		addr:       addr,
		hub:        hub,
		tokenSvc:   tokenSvc,
		wsHandler:  handlers.NewWSHandler(presenceSvc),
		msgHandler: handlers.NewMessageHandler(messageSvc),
		usrHandler: handlers.NewUserHandler(userSvc),
	}
	s.routes(app)
	return s
}

func (s *Server) routes(app string) {
	auth := middleware.AuthMiddleware(s.tokenSvc)
	reqLog := middleware.RequestLogger(s.log)
	tracing := middleware.TracerMiddleware(app)

	wrap := func(h http.Handler) http.Handler {
		return tracing(reqLog(auth(h)))
	}

	// The literal unread-counts pattern wins over {peerId} by specificity.
	s.mux.Handle("GET /api/messages/unread-counts", wrap(http.HandlerFunc(s.msgHandler.UnreadCounts)))
	s.mux.Handle("GET /api/messages/{peerId}", wrap(http.HandlerFunc(s.msgHandler.History)))
	s.mux.Handle("POST /api/messages/send/{peerId}", wrap(http.HandlerFunc(s.msgHandler.Send)))
	s.mux.Handle("PUT /api/messages/seen/{peerId}", wrap(http.HandlerFunc(s.msgHandler.Seen)))
	s.mux.Handle("GET /api/users", wrap(http.HandlerFunc(s.usrHandler.Sidebar)))
	s.mux.Handle("GET /ws", wrap(http.HandlerFunc(s.wsHandler.Handler)))
}

func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:        s.addr,
		Handler:     s.mux,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: it would sever long-lived ws sessions.
	}
	s.log.Info("server starting", "addr", s.addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown stops accepting requests, then closes every live connection
// through the registry so presence state dies with the process.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}
	s.hub.Shutdown(ctx)
	return err
}
