package relay

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/payfail-relay/internal/audit"
	"github.com/xela07ax/payfail-relay/internal/domain"
)

// RecordCreator — контракт табличного хранилища.
type RecordCreator interface {
	CreateRecord(ctx context.Context, fields map[string]any) (string, error)
}

// Recorder пишет строку о сбое платежа в табличное хранилище.
// В отличие от Dispatcher, ошибка после логирования поднимается вызывающему:
// именно он решает, фатальна ли она для ответа на вебхук.
type Recorder struct {
	store   RecordCreator
	trail   *audit.Trail
	metrics *Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewRecorder(store RecordCreator, trail *audit.Trail, metrics *Metrics, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:   store,
		trail:   trail,
		metrics: metrics,
		logger:  logger.Named("recorder"),
		now:     time.Now,
	}
}

// RecordFailure создает запись и возвращает ее идентификатор.
func (r *Recorder) RecordFailure(ctx context.Context, p domain.PaymentFailure) (string, error) {
	fields := map[string]any{
		"Payment ID":      p.PaymentID,
		"Customer Email":  domain.OrUnknown(p.CustomerEmail),
		"Amount":          p.MajorAmount(),
		"Currency":        p.DisplayCurrency(),
		"Failure Code":    domain.OrUnknown(p.FailureCode),
		"Failure Message": domain.OrUnknown(p.FailureMessage),
		"Failed At":       p.FailedAt,
		"Status":          "New",
		// Created At — момент записи, не путать с failed_at события
		"Created At": domain.ISO8601(r.now()),
	}

	recordID, err := r.store.CreateRecord(ctx, fields)
	if err != nil {
		r.metrics.SinkErrors.WithLabelValues("airtable").Inc()
		r.trail.Append("Failed to record payment failure: " + err.Error())
		r.logger.Error("tracking record failed", zap.String("payment_id", p.PaymentID), zap.Error(err))
		return "", fmt.Errorf("record failure %s: %w", p.PaymentID, err)
	}

	r.trail.Append("Payment failure recorded: " + recordID)
	return recordID, nil
}
