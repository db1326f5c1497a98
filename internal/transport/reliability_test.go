package transport

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"github.com/xela07ax/payfail-relay/internal/infra"
)

type failingDoer struct {
	calls int
}

func (f *failingDoer) Do(*http.Request) (*http.Response, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

func testRelayConfig() infra.RelayConfig {
	return infra.RelayConfig{
		CBMaxRequests: 3,
		CBInterval:    5 * time.Second,
		CBTimeout:     30 * time.Second,
		RateLimit:     1000,
		RateBurst:     1000,
	}
}

func TestReliableClientPassesThrough(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	t.Cleanup(ts.Close)

	client := NewReliableClient("test", &http.Client{}, testRelayConfig(), nil)
	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Fatalf("status must pass through untouched, got %d", resp.StatusCode)
	}
}

func TestReliableClientTripsBreaker(t *testing.T) {
	next := &failingDoer{}
	var opened bool
	client := NewReliableClient("test", next, testRelayConfig(), func(name string, state gobreaker.State) {
		if state == gobreaker.StateOpen {
			opened = true
		}
	})

	// Шесть подряд ошибок выбивают предохранитель
	for i := 0; i < 6; i++ {
		req, _ := http.NewRequest(http.MethodGet, "http://sink.invalid/", nil)
		if _, err := client.Do(req); err == nil {
			t.Fatalf("expected transport error on call %d", i)
		}
	}
	if !opened {
		t.Fatalf("breaker must report open state after consecutive failures")
	}

	req, _ := http.NewRequest(http.MethodGet, "http://sink.invalid/", nil)
	if _, err := client.Do(req); err == nil {
		t.Fatalf("expected open-state error")
	}
	if next.calls != 6 {
		t.Fatalf("open breaker must not reach the transport, calls=%d", next.calls)
	}
}
