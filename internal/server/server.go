package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xela07ax/payfail-relay/internal/audit"
	"github.com/xela07ax/payfail-relay/internal/relay"
	"github.com/xela07ax/payfail-relay/internal/stripe"
)

// EventVerifier — контракт верификатора подписи (реализуется stripe.Verifier).
// Отдает уже разобранное событие, если подпись сырого тела сошлась.
type EventVerifier interface {
	ConstructEvent(body []byte, sigHeader string) (stripe.Event, error)
}

// Processor — контракт ядра ретранслятора.
type Processor interface {
	Process(ctx context.Context, ev stripe.Event) error
	RunSelfTest(ctx context.Context) (relay.SelfTestResult, error)
}

// Server — HTTP-поверхность сервиса: вебхук-ингресс и операционные роуты.
type Server struct {
	router   *chi.Mux
	logger   *zap.Logger
	verifier EventVerifier
	pipeline Processor
	trail    *audit.Trail
	metrics  http.Handler
}

// NewServer собирает роутер со всеми зависимостями.
// metricsHandler (обычно promhttp) может быть nil — тогда роут не монтируется.
func NewServer(
	logger *zap.Logger,
	verifier EventVerifier,
	pipeline Processor,
	trail *audit.Trail,
	metricsHandler http.Handler,
) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger.Named("http"),
		verifier: verifier,
		pipeline: pipeline,
		trail:    trail,
		metrics:  metricsHandler,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	// Глобальные инфраструктурные Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/logs", s.handleLogs)

	// Вебхук принимает сырое тело: парсить его до проверки подписи нельзя
	r.Post("/webhook/stripe", s.handleWebhook)

	// Ручной прогон синков, минуя Ingress
	r.Post("/test", s.handleTest)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
