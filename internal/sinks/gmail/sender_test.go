package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/xela07ax/payfail-relay/internal/infra"
)

type gmailFixture struct {
	tokenCalls int
	sendCalls  int
	lastAuth   string
	lastRaw    string
	sendStatus int
}

func newFixture(t *testing.T) (*Sender, *gmailFixture) {
	t.Helper()
	fx := &gmailFixture{sendStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		fx.tokenCalls++
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse token form: %v", err)
		}
		if r.Form.Get("grant_type") != "refresh_token" {
			t.Errorf("unexpected grant_type %q", r.Form.Get("grant_type"))
		}
		io.WriteString(w, `{"access_token":"ya29.test","expires_in":3600}`)
	})
	mux.HandleFunc("/users/me/messages/send", func(w http.ResponseWriter, r *http.Request) {
		fx.sendCalls++
		fx.lastAuth = r.Header.Get("Authorization")

		var req struct {
			Raw string `json:"raw"`
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode send request: %v", err)
		}
		fx.lastRaw = req.Raw

		w.WriteHeader(fx.sendStatus)
		if fx.sendStatus == http.StatusOK {
			io.WriteString(w, `{"id":"msg_1"}`)
		}
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	cfg := infra.GmailConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RefreshToken: "refresh",
		Sender:       "alerts@example.com",
		TokenURL:     ts.URL + "/token",
		APIURL:       ts.URL,
	}
	return NewSender(cfg, &http.Client{}, zap.NewNop()), fx
}

func TestSendBuildsMIMEMessage(t *testing.T) {
	sender, fx := newFixture(t)

	err := sender.Send(context.Background(), "admin@example.com", "Payment Failed Alert - a@b.com", "Amount: $25.00 USD\n")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if fx.lastAuth != "Bearer ya29.test" {
		t.Fatalf("unexpected authorization %q", fx.lastAuth)
	}

	decoded, err := base64.URLEncoding.DecodeString(fx.lastRaw)
	if err != nil {
		t.Fatalf("raw message must be base64url: %v", err)
	}
	message := string(decoded)
	for _, want := range []string{
		"From: alerts@example.com\r\n",
		"To: admin@example.com\r\n",
		"Subject: Payment Failed Alert - a@b.com\r\n",
		"Amount: $25.00 USD",
	} {
		if !strings.Contains(message, want) {
			t.Fatalf("message missing %q:\n%s", want, message)
		}
	}
}

func TestSendReusesCachedToken(t *testing.T) {
	sender, fx := newFixture(t)

	for i := 0; i < 3; i++ {
		if err := sender.Send(context.Background(), "admin@example.com", "subj", "body"); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	if fx.tokenCalls != 1 {
		t.Fatalf("token must be exchanged once and cached, calls=%d", fx.tokenCalls)
	}
	if fx.sendCalls != 3 {
		t.Fatalf("expected 3 deliveries, got %d", fx.sendCalls)
	}
}

func TestSendSurfacesAPIFailure(t *testing.T) {
	sender, fx := newFixture(t)
	fx.sendStatus = http.StatusForbidden

	err := sender.Send(context.Background(), "admin@example.com", "subj", "body")
	if err == nil {
		t.Fatalf("expected delivery failure")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("error must carry the status code, got %v", err)
	}
	if fx.sendCalls != 1 {
		t.Fatalf("delivery is single-shot, calls=%d", fx.sendCalls)
	}
}

func TestSendFailsWhenTokenEndpointDown(t *testing.T) {
	cfg := infra.GmailConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RefreshToken: "refresh",
		TokenURL:     "http://127.0.0.1:0/token",
		APIURL:       "http://127.0.0.1:0",
	}
	sender := NewSender(cfg, &http.Client{}, zap.NewNop())

	if err := sender.Send(context.Background(), "admin@example.com", "subj", "body"); err == nil {
		t.Fatalf("expected token exchange failure")
	}
}
