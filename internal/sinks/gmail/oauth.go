package gmail

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v5"
	jsoniter "github.com/json-iterator/go"

	"github.com/xela07ax/payfail-relay/internal/infra"
	"github.com/xela07ax/payfail-relay/internal/transport"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// tokenSource меняет refresh token на access token и кэширует его до
// истечения. Обмен — инфраструктурный вызов (не доставка письма), поэтому
// здесь допустим ретрай с бэкоффом.
type tokenSource struct {
	http     transport.Doer
	tokenURL string
	clientID string
	secret   string
	refresh  string

	mu      sync.Mutex
	cached  string
	expires time.Time
	now     func() time.Time
}

func newTokenSource(cfg infra.GmailConfig, doer transport.Doer) *tokenSource {
	return &tokenSource{
		http:     doer,
		tokenURL: cfg.TokenURL,
		clientID: cfg.ClientID,
		secret:   cfg.ClientSecret,
		refresh:  cfg.RefreshToken,
		now:      time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Token возвращает живой access token, при необходимости обновляя его.
func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Минута запаса, чтобы токен не истек посреди отправки
	if t.cached != "" && t.now().Add(time.Minute).Before(t.expires) {
		return t.cached, nil
	}

	form := url.Values{
		"client_id":     {t.clientID},
		"client_secret": {t.secret},
		"refresh_token": {t.refresh},
		"grant_type":    {"refresh_token"},
	}

	var token tokenResponse
	r := retry.New(retry.Context(ctx), retry.Attempts(3))
	err := r.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.tokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return fmt.Errorf("gmail: build token request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := t.http.Do(req)
		if err != nil {
			return fmt.Errorf("gmail: token exchange: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("gmail: token endpoint returned %d", resp.StatusCode)
		}
		if err := codec.NewDecoder(resp.Body).Decode(&token); err != nil {
			return fmt.Errorf("gmail: decode token response: %w", err)
		}
		if token.AccessToken == "" {
			return fmt.Errorf("gmail: token response without access_token")
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	t.cached = token.AccessToken
	t.expires = t.now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return t.cached, nil
}

// invalidate сбрасывает кэш (вызывается после 401 от API).
func (t *tokenSource) invalidate() {
	t.mu.Lock()
	t.cached = ""
	t.expires = time.Time{}
	t.mu.Unlock()
}
