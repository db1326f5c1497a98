package stripe

import (
	"encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// Разбор вебхук-событий идет на горячем пути, поэтому jsoniter.
var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Типы событий, которые сервис умеет обрабатывать.
const (
	EventPaymentIntentFailed = "payment_intent.payment_failed"
	EventInvoiceFailed       = "invoice.payment_failed"
	EventChargeFailed        = "charge.failed"
)

// Recognized сообщает, входит ли тип события в обрабатываемый набор.
// Все остальные типы подтверждаются без обработки, чтобы провайдер
// не ретраил их бесконечно.
func Recognized(eventType string) bool {
	switch eventType {
	case EventPaymentIntentFailed, EventInvoiceFailed, EventChargeFailed:
		return true
	}
	return false
}

// Event — конверт вебхук-события провайдера.
// Data.Object остается сырым JSON: конкретная форма зависит от Type.
type Event struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"` // epoch seconds, время создания события у провайдера
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// PaymentError — вложенный объект ошибки у payment intent.
type PaymentError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PaymentIntent — форма data.object для payment_intent.payment_failed.
type PaymentIntent struct {
	ID               string        `json:"id"`
	ReceiptEmail     string        `json:"receipt_email"`
	Amount           int64         `json:"amount"`
	Currency         string        `json:"currency"`
	LastPaymentError *PaymentError `json:"last_payment_error"`
}

// Invoice — форма data.object для invoice.payment_failed.
// Детальной причины провайдер для этой формы не отдает.
type Invoice struct {
	ID            string `json:"id"`
	CustomerEmail string `json:"customer_email"`
	AmountDue     int64  `json:"amount_due"`
	Currency      string `json:"currency"`
}

// BillingDetails — резервный источник email у charge.
type BillingDetails struct {
	Email string `json:"email"`
}

// Charge — форма data.object для charge.failed.
type Charge struct {
	ID             string          `json:"id"`
	ReceiptEmail   string          `json:"receipt_email"`
	BillingDetails *BillingDetails `json:"billing_details"`
	Amount         int64           `json:"amount"`
	Currency       string          `json:"currency"`
	FailureCode    string          `json:"failure_code"`
	FailureMessage string          `json:"failure_message"`
}

// ParseEvent десериализует конверт события из сырого тела запроса.
func ParseEvent(body []byte) (Event, error) {
	var ev Event
	if err := codec.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("parse event envelope: %w", err)
	}
	return ev, nil
}

// DecodeObject разбирает data.object в конкретную форму (&PaymentIntent и т.д.).
func (e Event) DecodeObject(dst any) error {
	if len(e.Data.Object) == 0 {
		return fmt.Errorf("event %s: empty data.object", e.ID)
	}
	if err := codec.Unmarshal(e.Data.Object, dst); err != nil {
		return fmt.Errorf("decode %s object: %w", e.Type, err)
	}
	return nil
}
