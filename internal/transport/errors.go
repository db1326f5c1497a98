package transport

import (
	"fmt"
	"time"
)

// ThrottleError сигнализирует, что внешний сервис попросил сбавить темп
// (429 + Retry-After). Ретрай-слой клиента использует RetryAfter как задержку.
type ThrottleError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("throttled: retry after %v (cause: %v)", e.RetryAfter, e.Cause)
}

func (e *ThrottleError) Unwrap() error {
	return e.Cause
}
