package normalize

import (
	"errors"
	"fmt"
	"time"

	"github.com/xela07ax/payfail-relay/internal/domain"
	"github.com/xela07ax/payfail-relay/internal/stripe"
)

// ErrUnsupportedEvent возвращается, если до нормализатора дошел тип события
// вне обрабатываемого набора. Ingress фильтрует такие события раньше, так что
// эта ветка — защита на глубину: лучше громкая ошибка, чем запись с пустыми
// обязательными полями.
var ErrUnsupportedEvent = errors.New("normalize: unsupported event type")

// Фиксированные литералы для invoice.payment_failed: провайдер не отдает
// детальную причину для этой формы события.
const (
	invoiceFailureCode    = "invoice_payment_failed"
	invoiceFailureMessage = "Invoice payment failed"
)

// FromEvent приводит одно из трех распознаваемых событий провайдера к
// канонической записи PaymentFailure. Сумма остается в минорных единицах,
// валюта — как пришла; failed_at всегда берется из created самого события,
// а не из времени обработки.
func FromEvent(ev stripe.Event) (domain.PaymentFailure, error) {
	failedAt := domain.ISO8601(time.Unix(ev.Created, 0))

	switch ev.Type {
	case stripe.EventPaymentIntentFailed:
		var pi stripe.PaymentIntent
		if err := ev.DecodeObject(&pi); err != nil {
			return domain.PaymentFailure{}, err
		}
		record := domain.PaymentFailure{
			PaymentID:     pi.ID,
			CustomerEmail: domain.OrUnknown(pi.ReceiptEmail),
			Amount:        pi.Amount,
			Currency:      pi.Currency,
			FailedAt:      failedAt,
		}
		// Вложенный объект ошибки может отсутствовать целиком
		if pi.LastPaymentError != nil {
			record.FailureCode = pi.LastPaymentError.Code
			record.FailureMessage = pi.LastPaymentError.Message
		}
		return record, nil

	case stripe.EventInvoiceFailed:
		var inv stripe.Invoice
		if err := ev.DecodeObject(&inv); err != nil {
			return domain.PaymentFailure{}, err
		}
		return domain.PaymentFailure{
			PaymentID:      inv.ID,
			CustomerEmail:  domain.OrUnknown(inv.CustomerEmail),
			Amount:         inv.AmountDue,
			Currency:       inv.Currency,
			FailureCode:    invoiceFailureCode,
			FailureMessage: invoiceFailureMessage,
			FailedAt:       failedAt,
		}, nil

	case stripe.EventChargeFailed:
		var ch stripe.Charge
		if err := ev.DecodeObject(&ch); err != nil {
			return domain.PaymentFailure{}, err
		}
		// Email: сначала receipt_email, затем billing_details.email
		email := ch.ReceiptEmail
		if email == "" && ch.BillingDetails != nil {
			email = ch.BillingDetails.Email
		}
		return domain.PaymentFailure{
			PaymentID:      ch.ID,
			CustomerEmail:  domain.OrUnknown(email),
			Amount:         ch.Amount,
			Currency:       ch.Currency,
			FailureCode:    ch.FailureCode,
			FailureMessage: ch.FailureMessage,
			FailedAt:       failedAt,
		}, nil

	default:
		return domain.PaymentFailure{}, fmt.Errorf("%w: %s", ErrUnsupportedEvent, ev.Type)
	}
}
