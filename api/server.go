package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dan13ram/xbridge-engine/models"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	log "github.com/sirupsen/logrus"
)

const (
	ServerName = "HTTP"
)

type Transfers interface {
	CreateTransfer(ctx context.Context, req models.TransferRequest) (*models.BridgeTransaction, error)
	GetTransfer(ctx context.Context, id string) (*models.BridgeTransaction, error)
	ListTransfersFor(ctx context.Context, address string) ([]*models.BridgeTransaction, error)
}

type ActiveTransfers interface {
	ListActive(ctx context.Context) ([]*models.BridgeTransaction, error)
}

type Stats interface {
	GetStats() models.RunningStats
}

type Notifications interface {
	Subscribe(sub models.Subscription) (string, error)
	Unsubscribe(id string) error
	History(recipient string) []models.Notification
	Failures() []models.DeliveryFailure
}

// Dependencies are the components the API serves. Nil optional fields disable their routes.
type Dependencies struct {
	Transfers     Transfers
	Active        ActiveTransfers
	Stats         Stats
	Notifications Notifications
	Push          http.Handler
	Metrics       http.Handler
	Health        func() []models.ServiceHealth
}

func NewRouter(deps Dependencies) http.Handler {
	h := &handlers{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/transfers", func(r chi.Router) {
		r.Post("/", h.createTransfer)
		r.Get("/{id}", h.getTransfer)
	})
	r.Get("/addresses/{address}/transfers", h.listTransfersFor)

	if deps.Active != nil {
		r.Get("/monitor/active", h.listActive)
	}
	if deps.Stats != nil {
		r.Get("/stats", h.getStats)
	}
	if deps.Notifications != nil {
		r.Post("/subscriptions", h.subscribe)
		r.Delete("/subscriptions/{id}", h.unsubscribe)
		r.Get("/delivery-failures", h.failures)
		r.Get("/notifications/{recipient}", h.history)
	}
	if deps.Push != nil {
		r.Handle("/ws", deps.Push)
	}
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}
	r.Get("/health", h.health)

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.WithFields(log.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("[HTTP] Request served")
	})
}

// Server runs the API as a service.
type Server struct {
	server *http.Server
	wg     *sync.WaitGroup

	mu      sync.RWMutex
	healthy bool
	started time.Time
}

func NewServer(addr string, handler http.Handler, wg *sync.WaitGroup) *Server {
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		wg: wg,
	}
}

func (s *Server) Start() {
	log.WithField("addr", s.server.Addr).Info("[HTTP] Starting service")
	s.mu.Lock()
	s.healthy = true
	s.started = time.Now()
	s.mu.Unlock()

	err := s.server.ListenAndServe()

	s.mu.Lock()
	s.healthy = false
	s.mu.Unlock()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("[HTTP] Server stopped unexpectedly")
	}
	log.Info("[HTTP] Stopped service")
}

func (s *Server) Stop() {
	log.Debug("[HTTP] Stopping service")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("[HTTP] Error shutting down server")
	}
	if s.wg != nil {
		s.wg.Done()
	}
}

func (s *Server) Health() models.ServiceHealth {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.ServiceHealth{
		Name:         ServerName,
		LastSyncTime: s.started,
		NextSyncTime: s.started,
		Healthy:      s.healthy,
	}
}
