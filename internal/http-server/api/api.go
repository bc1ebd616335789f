package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"brincafacil/internal/config"
	"brincafacil/internal/http-server/handlers/access"
	handlerrors "brincafacil/internal/http-server/handlers/errors"
	"brincafacil/internal/http-server/handlers/health"
	"brincafacil/internal/http-server/handlers/purchase"
	"brincafacil/internal/http-server/middleware/authenticate"
	"brincafacil/internal/http-server/middleware/timeout"
	"brincafacil/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	access.Core
}

// Flows are the provider webhook flows mounted under /webhook; Stripe is optional.
type Flows struct {
	Kirvano purchase.Flow
	Stripe  purchase.Flow
}

func NewRouter(log *slog.Logger, handler Handler, flows Flows) http.Handler {
	router := chi.NewRouter()
	router.Use(timeout.Timeout(10 * time.Second))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(handlerrors.NotFound(log))
	router.MethodNotAllowed(handlerrors.NotAllowed(log))

	router.Get("/health", health.Check())

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Use(authenticate.New(log, handler))
		rootApi.Get("/access/{email}", access.Get(log, handler))
		rootApi.Post("/access", access.Grant(log, handler))
		rootApi.Get("/payments/{email}", access.Payments(log, handler))
	})

	kirvano := purchase.Event(log, flows.Kirvano)
	router.Route("/webhook", func(rootWH chi.Router) {
		rootWH.HandleFunc("/kirvano", kirvano)
		if flows.Stripe != nil {
			rootWH.HandleFunc("/stripe", purchase.Event(log, flows.Stripe))
		}
	})
	router.HandleFunc("/api/webhook", kirvano)

	return router
}

func New(conf *config.Config, log *slog.Logger, router http.Handler) *Server {
	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	return &Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
		httpServer: &http.Server{
			Handler:      router,
			ErrorLog:     httpLog,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start blocks until the server stops; a clean Shutdown returns nil.
func (s *Server) Start() error {
	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIp, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	s.log.Info("starting api server", slog.String("address", serverAddress))

	err = s.httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down api server")
	return s.httpServer.Shutdown(ctx)
}
