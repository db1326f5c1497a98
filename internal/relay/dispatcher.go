package relay

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xela07ax/payfail-relay/internal/audit"
	"github.com/xela07ax/payfail-relay/internal/domain"
)

// EmailSender — контракт почтового коллаборатора.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Dispatcher доставляет алерт о сбое платежа в почтовый синк.
// Ошибки доставки не покидают Dispatcher: они логируются и проглатываются,
// чтобы не блокировать запись в табличное хранилище и не валить запрос.
type Dispatcher struct {
	mail    EmailSender
	alertTo string
	trail   *audit.Trail
	metrics *Metrics
	logger  *zap.Logger
}

func NewDispatcher(mail EmailSender, alertTo string, trail *audit.Trail, metrics *Metrics, logger *zap.Logger) *Dispatcher {
	if alertTo == "" {
		alertTo = "admin@example.com"
	}
	return &Dispatcher{
		mail:    mail,
		alertTo: alertTo,
		trail:   trail,
		metrics: metrics,
		logger:  logger.Named("dispatcher"),
	}
}

// SendAlert собирает письмо по канонической записи и отправляет его.
// Никогда не возвращает ошибку вызывающему.
func (d *Dispatcher) SendAlert(ctx context.Context, p domain.PaymentFailure) {
	subject := "Payment Failed Alert - " + p.CustomerEmail
	body := alertBody(p)

	if err := d.mail.Send(ctx, d.alertTo, subject, body); err != nil {
		d.metrics.SinkErrors.WithLabelValues("email").Inc()
		d.trail.Append("Failed to send alert email: " + err.Error())
		d.logger.Warn("alert delivery failed", zap.String("payment_id", p.PaymentID), zap.Error(err))
		return
	}

	d.trail.Append("Alert email sent for payment " + p.PaymentID)
}

// alertBody перечисляет все поля канонической записи.
// Сумма и валюта конвертируются только здесь, на границе презентации.
func alertBody(p domain.PaymentFailure) string {
	return fmt.Sprintf(
		"Payment Failure Details:\n\n"+
			"Payment ID: %s\n"+
			"Customer Email: %s\n"+
			"Amount: $%s %s\n"+
			"Failure Code: %s\n"+
			"Failure Message: %s\n"+
			"Failed At: %s\n",
		p.PaymentID,
		domain.OrUnknown(p.CustomerEmail),
		p.DisplayAmount(),
		p.DisplayCurrency(),
		domain.OrUnknown(p.FailureCode),
		domain.OrUnknown(p.FailureMessage),
		p.FailedAt,
	)
}
