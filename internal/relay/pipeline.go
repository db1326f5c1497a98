package relay

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/payfail-relay/internal/audit"
	"github.com/xela07ax/payfail-relay/internal/domain"
	"github.com/xela07ax/payfail-relay/internal/normalize"
	"github.com/xela07ax/payfail-relay/internal/stripe"
)

// Pipeline — ядро ретранслятора: нормализация проверенного события и
// последовательная доставка в оба синка. Порядок жесткий: сначала алерт,
// затем запись. Dispatcher уже разрешился (успехом или проглоченной
// ошибкой) к моменту старта Recorder — это осознанный контракт, а не
// упущенная оптимизация.
type Pipeline struct {
	dispatcher *Dispatcher
	recorder   *Recorder
	trail      *audit.Trail
	metrics    *Metrics
	logger     *zap.Logger
}

func NewPipeline(dispatcher *Dispatcher, recorder *Recorder, trail *audit.Trail, metrics *Metrics, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		dispatcher: dispatcher,
		recorder:   recorder,
		trail:      trail,
		metrics:    metrics,
		logger:     logger.Named("pipeline"),
	}
}

// Process обрабатывает одно проверенное событие провайдера.
// Ошибка означает, что запись в хранилище не удалась (или тип события
// не распознан) — решение об HTTP-статусе принимает Ingress.
func (p *Pipeline) Process(ctx context.Context, ev stripe.Event) error {
	p.metrics.WebhookTotal.WithLabelValues(ev.Type).Inc()
	start := time.Now()
	status := "success"
	defer func() {
		p.metrics.WebhookDuration.WithLabelValues(ev.Type, status).Observe(time.Since(start).Seconds())
		p.metrics.AuditTrailSize.Set(float64(p.trail.Len()))
	}()

	record, err := normalize.FromEvent(ev)
	if err != nil {
		status = "unsupported"
		p.trail.Append("Skipped event " + ev.ID + ": " + err.Error())
		return err
	}

	// 1. Алерт (ошибки контейнятся внутри Dispatcher)
	p.dispatcher.SendAlert(ctx, record)

	// 2. Запись в хранилище (ошибка фатальна для запроса)
	if _, err := p.recorder.RecordFailure(ctx, record); err != nil {
		status = "failed"
		return err
	}

	p.trail.Append(fmt.Sprintf("Successfully processed %s for payment %s", ev.Type, record.PaymentID))
	return nil
}

// SelfTestResult — итог ручного прогона синков.
type SelfTestResult struct {
	Record   domain.PaymentFailure
	RecordID string
}

// RunSelfTest строит синтетическую запись и прогоняет ее через оба синка,
// минуя проверку подписи и фильтр типов. Используется для проверки
// связности синков без ожидания реального события.
func (p *Pipeline) RunSelfTest(ctx context.Context) (SelfTestResult, error) {
	record := domain.PaymentFailure{
		PaymentID:      fmt.Sprintf("test_%d", time.Now().UnixMilli()),
		CustomerEmail:  "test@example.com",
		Amount:         2500,
		Currency:       "usd",
		FailureCode:    "card_declined",
		FailureMessage: "Test alert: card was declined",
		FailedAt:       domain.ISO8601(time.Now()),
	}

	p.trail.Append("Manual self-test triggered: " + record.PaymentID)

	p.dispatcher.SendAlert(ctx, record)

	recordID, err := p.recorder.RecordFailure(ctx, record)
	if err != nil {
		return SelfTestResult{Record: record}, err
	}

	p.trail.Append("Self-test completed: " + recordID)
	return SelfTestResult{Record: record, RecordID: recordID}, nil
}
