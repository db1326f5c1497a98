package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xela07ax/payfail-relay/internal/domain"
	"github.com/xela07ax/payfail-relay/internal/normalize"
	"github.com/xela07ax/payfail-relay/internal/stripe"
)

var json = jsoniter.ConfigFastest

const maxWebhookBody = 1 << 20 // провайдер не шлет события крупнее мегабайта

// handleWebhook — Ingress: подпись -> фильтр -> пайплайн.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unable to read request body"})
		return
	}

	// 1. Проверка подписи по сырому телу. Провал — терминален:
	// ни одной записи о самом событии, никаких сайд-эффектов.
	ev, err := s.verifier.ConstructEvent(body, r.Header.Get(stripe.SignatureHeader))
	if err != nil {
		s.trail.Append("Webhook signature verification failed: " + err.Error())
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "webhook signature verification failed"})
		return
	}

	// 2. Фильтр типов: чужие события подтверждаем без обработки,
	// чтобы провайдер не ретраил их бесконечно.
	if !stripe.Recognized(ev.Type) {
		s.writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	// 3. Нормализация и доставка в синки
	if err := s.pipeline.Process(r.Context(), ev); err != nil {
		// Защитная ветка: нераспознанная форма после фильтра подтверждается, как и фильтром
		if errors.Is(err, normalize.ErrUnsupportedEvent) {
			s.writeJSON(w, http.StatusOK, map[string]bool{"received": true})
			return
		}
		// Ошибка Recorder: 500, чтобы ретрай-механизм провайдера доставил вебхук повторно
		s.trail.Append("Webhook processing failed: " + err.Error())
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to process webhook"})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// handleTest — ручной прогон синков с синтетической записью.
func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	result, err := s.pipeline.RunSelfTest(r.Context())
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Test alert dispatched and recorded",
		"recordId": result.RecordID,
		"testData": result.Record,
	})
}

// handleRoot — дескриптор сервиса.
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"service": "payfail-relay",
		"endpoints": map[string]string{
			"POST /webhook/stripe": "payment provider webhook ingress",
			"GET /health":          "liveness probe",
			"GET /logs":            "recent audit trail entries",
			"POST /test":           "manual sink self-test",
			"GET /metrics":         "prometheus metrics",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": domain.ISO8601(time.Now()),
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"logs": s.trail.Snapshot(20),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}
