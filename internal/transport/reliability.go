package transport

import (
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/xela07ax/payfail-relay/internal/infra"
)

// Doer — минимальный контракт HTTP-клиента (реализуется *http.Client).
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ReliableClient оборачивает исходящие вызовы к внешнему коллаборатору в
// Rate Limiter + Circuit Breaker. Ретраи сюда не входят: они живут в самих
// клиентах синков, где известен контракт конкретного API.
type ReliableClient struct {
	name    string
	next    Doer
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewReliableClient настраивает обертку для одного внешнего сервиса.
// onState (опционально) дергается при смене состояния предохранителя —
// через него выставляется метрика.
func NewReliableClient(name string, next Doer, cfg infra.RelayConfig, onState func(name string, state gobreaker.State)) *ReliableClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout, // время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Если более 5 ошибок подряд — открываемся (блокируем трафик)
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if onState != nil {
				onState(name, to)
			}
		},
	})

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)

	return &ReliableClient{
		name:    name,
		next:    next,
		cb:      cb,
		limiter: limiter,
	}
}

// Do пропускает запрос через лимитер и предохранитель.
// Ошибкой для предохранителя считается только транспортный сбой;
// HTTP-статусы интерпретирует вызывающий клиент.
func (c *ReliableClient) Do(req *http.Request) (*http.Response, error) {
	// 1. Rate Limiter
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("%s: rate limit wait: %w", c.name, err)
	}

	// 2. Circuit Breaker
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.next.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}
	return result.(*http.Response), nil
}
