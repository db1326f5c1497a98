package airtable

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xela07ax/payfail-relay/internal/infra"
	"github.com/xela07ax/payfail-relay/internal/transport"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Client — REST-клиент табличного хранилища.
// Ретраи на 429/5xx — часть контракта самого API (Airtable отдает Retry-After
// и требует паузу в 30с при превышении 5 rps), поэтому живут здесь,
// внутри коллаборатора, а не в пайплайне.
type Client struct {
	http     transport.Doer
	logger   *zap.Logger
	apiKey   string
	baseURL  string
	baseID   string
	table    string
	attempts uint
}

// NewClient собирает клиент по конфигу. doer обычно — ReliableClient.
func NewClient(cfg infra.AirtableConfig, rcfg infra.RelayConfig, doer transport.Doer, logger *zap.Logger) *Client {
	attempts := rcfg.RetryAttempts
	if attempts == 0 {
		attempts = 1
	}
	return &Client{
		http:     doer,
		logger:   logger.Named("airtable"),
		apiKey:   cfg.APIKey,
		baseURL:  cfg.BaseURL,
		baseID:   cfg.BaseID,
		table:    cfg.Table,
		attempts: attempts,
	}
}

type createRequest struct {
	Fields map[string]any `json:"fields"`
}

type createResponse struct {
	ID string `json:"id"`
}

// CreateRecord создает одну строку в таблице и возвращает id записи (rec...).
func (c *Client) CreateRecord(ctx context.Context, fields map[string]any) (string, error) {
	payload, err := codec.Marshal(createRequest{Fields: fields})
	if err != nil {
		return "", fmt.Errorf("airtable: encode fields: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.baseID, url.PathEscape(c.table))

	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		// Умный расчет задержки: уважаем Retry-After, иначе экспоненциальный бэкофф
		retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
			var tErr *transport.ThrottleError
			if errors.As(err, &tErr) {
				return tErr.RetryAfter
			}
			return retry.BackOffDelay(n, err, config)
		}),
	)

	var (
		recordID  string
		permanent error
	)
	retryErr := r.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("airtable: build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("airtable: create record: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
			var created createResponse
			if err := codec.NewDecoder(resp.Body).Decode(&created); err != nil {
				return fmt.Errorf("airtable: decode response: %w", err)
			}
			recordID = created.ID
			return nil

		case resp.StatusCode == http.StatusTooManyRequests:
			return &transport.ThrottleError{
				RetryAfter: retryAfter(resp),
				Cause:      fmt.Errorf("airtable: rate limited"),
			}

		case resp.StatusCode >= 500:
			return fmt.Errorf("airtable: server error: %s", readErrorBody(resp.Body))

		default:
			// Клиентские ошибки (400/403/422) ретраить бессмысленно
			permanent = fmt.Errorf("airtable: request rejected (%d): %s", resp.StatusCode, readErrorBody(resp.Body))
			return nil
		}
	})
	if retryErr != nil {
		return "", retryErr
	}
	if permanent != nil {
		return "", permanent
	}

	c.logger.Debug("record created", zap.String("record_id", recordID))
	return recordID, nil
}

// retryAfter вычитывает Retry-After (секунды); дефолт Airtable — 30с.
func retryAfter(resp *http.Response) time.Duration {
	if raw := resp.Header.Get("Retry-After"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 30 * time.Second
}

func readErrorBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 512))
	if len(data) == 0 {
		return "<empty body>"
	}
	return string(data)
}
