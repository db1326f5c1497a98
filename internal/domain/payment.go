package domain

import (
	"fmt"
	"strings"
	"time"
)

// PaymentFailure — каноническая запись об упавшем платеже.
// Сумма хранится в минорных единицах (центах), валюта — как пришла от
// провайдера (lowercase). Конвертация в мажорные единицы и upper-case
// происходит только на границе презентации каждого синка.
// После конструирования запись не мутируется.
type PaymentFailure struct {
	PaymentID      string `json:"payment_id"`
	CustomerEmail  string `json:"customer_email"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	FailureCode    string `json:"failure_code,omitempty"`
	FailureMessage string `json:"failure_message,omitempty"`
	FailedAt       string `json:"failed_at"`
}

// Unknown — единый fallback для отсутствующих полей в обоих синках.
const Unknown = "Unknown"

// OrUnknown возвращает значение либо общий дефолт, если поле пустое.
// Единая точка дефолтинга, чтобы синки не разъезжались.
func OrUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return Unknown
	}
	return v
}

// MajorAmount конвертирует минорные единицы в мажорные (25.00 из 2500).
func (p PaymentFailure) MajorAmount() float64 {
	return float64(p.Amount) / 100
}

// DisplayAmount форматирует сумму с двумя знаками для текстовых представлений.
func (p PaymentFailure) DisplayAmount() string {
	return fmt.Sprintf("%.2f", p.MajorAmount())
}

// DisplayCurrency — валюта в верхнем регистре для презентации.
func (p PaymentFailure) DisplayCurrency() string {
	return strings.ToUpper(p.Currency)
}

// ISO8601 форматирует время в миллисекундный ISO-8601 (UTC),
// совместимый со строками failed_at провайдера.
func ISO8601(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
