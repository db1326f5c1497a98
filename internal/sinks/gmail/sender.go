package gmail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/xela07ax/payfail-relay/internal/infra"
	"github.com/xela07ax/payfail-relay/internal/transport"
)

// Sender отправляет письма через Gmail REST API (messages.send).
// Доставка — одна попытка на вызов: алерты никем не ретраятся,
// их ошибки проглатывает Dispatcher уровнем выше.
type Sender struct {
	http   transport.Doer
	tokens *tokenSource
	logger *zap.Logger
	apiURL string
	from   string
}

// NewSender собирает отправителя. doer обычно — ReliableClient.
func NewSender(cfg infra.GmailConfig, doer transport.Doer, logger *zap.Logger) *Sender {
	from := cfg.Sender
	if from == "" {
		from = "me"
	}
	return &Sender{
		http:   doer,
		tokens: newTokenSource(cfg, doer),
		logger: logger.Named("gmail"),
		apiURL: cfg.APIURL,
		from:   from,
	}
}

type sendRequest struct {
	Raw string `json:"raw"`
}

// Send доставляет plain-text письмо указанному получателю.
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return err
	}

	payload, err := codec.Marshal(sendRequest{Raw: buildRawMessage(s.from, to, subject, body)})
	if err != nil {
		return fmt.Errorf("gmail: encode message: %w", err)
	}

	endpoint := s.apiURL + "/users/me/messages/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("gmail: build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("gmail: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Токен протух раньше заявленного — сбрасываем кэш на будущее
		s.tokens.invalidate()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gmail: send returned %d: %s", resp.StatusCode, string(snippet))
	}

	s.logger.Debug("alert email delivered", zap.String("to", to))
	return nil
}
