package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader — заголовок с подписью вебхука.
const SignatureHeader = "Stripe-Signature"

const defaultTolerance = 5 * time.Minute

// Verifier проверяет подлинность вебхука по схеме провайдера:
// заголовок вида "t=<unix>,v1=<hex hmac>", где подпись считается как
// HMAC-SHA256(secret, "<t>.<raw body>"). Тело обязано быть сырым —
// любая пересериализация до проверки инвалидирует подпись.
type Verifier struct {
	Secret    string
	Tolerance time.Duration    // допустимый возраст t= (защита от replay)
	Now       func() time.Time // перекрывается в тестах
}

// NewVerifier собирает верификатор с дефолтным допуском.
func NewVerifier(secret string, tolerance time.Duration) Verifier {
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}
	return Verifier{Secret: secret, Tolerance: tolerance}
}

// Verify проверяет подпись сырого тела. Ошибка означает HTTP 400 на границе.
func (v Verifier) Verify(body []byte, header string) error {
	if strings.TrimSpace(header) == "" {
		return fmt.Errorf("signature: missing %s header", SignatureHeader)
	}

	ts, candidates, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	// Проверка свежести таймстемпа
	now := time.Now().UTC()
	if v.Now != nil {
		now = v.Now().UTC()
	}
	delta := now.Sub(time.Unix(ts, 0))
	if delta < 0 {
		delta = -delta
	}
	tolerance := v.Tolerance
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}
	if delta > tolerance {
		return fmt.Errorf("signature: timestamp outside tolerance window")
	}

	// Подписываемся под "t.body" и сравниваем за константное время
	mac := hmac.New(sha256.New, []byte(v.Secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		sig, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, sig) {
			return nil
		}
	}
	return fmt.Errorf("signature: no matching v1 signature found")
}

// ConstructEvent — проверка подписи и разбор конверта одним вызовом.
// Именно в таком виде верификатор используется на Ingress.
func (v Verifier) ConstructEvent(body []byte, header string) (Event, error) {
	if err := v.Verify(body, header); err != nil {
		return Event{}, err
	}
	return ParseEvent(body)
}

// parseSignatureHeader разбирает "t=123,v1=abc,v1=def" на таймстемп и
// список кандидатов подписи (их может быть несколько при ротации секрета).
func parseSignatureHeader(header string) (int64, []string, error) {
	var (
		ts         int64
		hasTS      bool
		candidates []string
	)
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("signature: invalid timestamp %q", value)
			}
			ts, hasTS = parsed, true
		case "v1":
			candidates = append(candidates, value)
		}
	}
	if !hasTS {
		return 0, nil, fmt.Errorf("signature: header has no timestamp")
	}
	if len(candidates) == 0 {
		return 0, nil, fmt.Errorf("signature: header has no v1 signature")
	}
	return ts, candidates, nil
}
