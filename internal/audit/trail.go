package audit

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/payfail-relay/internal/domain"
)

// Entry — одна запись операционного журнала. После создания не мутируется.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// DefaultLimit — сколько последних записей держим в памяти.
const DefaultLimit = 50

// Trail — ограниченный журнал операций (ring buffer).
// Единственное разделяемое мутабельное состояние процесса: HTTP-сервер Go
// обрабатывает запросы конкурентно, поэтому Append/Snapshot защищены мьютексом.
// Журнал живет ровно столько, сколько процесс, и никуда не персистится.
type Trail struct {
	mu      sync.Mutex
	entries []Entry
	limit   int
	logger  *zap.Logger
	now     func() time.Time
}

// NewTrail создает журнал с лимитом DefaultLimit и зеркалированием в zap.
func NewTrail(logger *zap.Logger) *Trail {
	return &Trail{
		entries: make([]Entry, 0, DefaultLimit),
		limit:   DefaultLimit,
		logger:  logger.Named("audit"),
		now:     time.Now,
	}
}

// Append добавляет запись с текущим таймстемпом и дублирует ее в логгер.
// Никогда не фейлится; при переполнении вытесняет самые старые записи (FIFO).
func (t *Trail) Append(message string) {
	entry := Entry{
		Timestamp: domain.ISO8601(t.now()),
		Message:   message,
	}

	t.mu.Lock()
	t.entries = append(t.entries, entry)
	if len(t.entries) > t.limit {
		t.entries = t.entries[len(t.entries)-t.limit:]
	}
	t.mu.Unlock()

	// Зеркало в операционный лог
	t.logger.Info(message, zap.String("ts", entry.Timestamp))
}

// Snapshot возвращает копию последних n записей в порядке добавления.
// Журнал при этом не мутируется.
func (t *Trail) Snapshot(n int) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n <= 0 || len(t.entries) == 0 {
		return []Entry{}
	}
	if n > len(t.entries) {
		n = len(t.entries)
	}
	out := make([]Entry, n)
	copy(out, t.entries[len(t.entries)-n:])
	return out
}

// Len — текущий размер журнала (для метрик).
func (t *Trail) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
