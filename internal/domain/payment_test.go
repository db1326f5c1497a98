package domain

import (
	"testing"
	"time"
)

func TestOrUnknown(t *testing.T) {
	if got := OrUnknown(""); got != Unknown {
		t.Fatalf("empty value must default, got %q", got)
	}
	if got := OrUnknown("   "); got != Unknown {
		t.Fatalf("whitespace value must default, got %q", got)
	}
	if got := OrUnknown("a@b.com"); got != "a@b.com" {
		t.Fatalf("present value must pass through, got %q", got)
	}
}

func TestPresentationView(t *testing.T) {
	p := PaymentFailure{Amount: 2500, Currency: "usd"}
	if got := p.DisplayAmount(); got != "25.00" {
		t.Fatalf("expected 25.00, got %q", got)
	}
	if got := p.DisplayCurrency(); got != "USD" {
		t.Fatalf("expected USD, got %q", got)
	}

	odd := PaymentFailure{Amount: 1999}
	if got := odd.DisplayAmount(); got != "19.99" {
		t.Fatalf("expected 19.99, got %q", got)
	}
}

func TestISO8601(t *testing.T) {
	if got := ISO8601(time.Unix(1700000000, 0)); got != "2023-11-14T22:13:20.000Z" {
		t.Fatalf("unexpected timestamp %q", got)
	}
	// Не-UTC вход нормализуется к Z
	loc := time.FixedZone("MSK", 3*3600)
	if got := ISO8601(time.Date(2026, 8, 31, 15, 0, 0, 0, loc)); got != "2026-08-31T12:00:00.000Z" {
		t.Fatalf("unexpected timestamp %q", got)
	}
}
