package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/omniagentpay/application-layer-sub001/internal/domain"
	"github.com/omniagentpay/application-layer-sub001/internal/observability"
	"github.com/omniagentpay/application-layer-sub001/internal/repository"
)

const (
	defaultQueueSize = 256
	writeAttempts    = 3
	writeBackoff     = 100 * time.Millisecond
	writeTimeout     = 10 * time.Second
)

// IntentStore owns every PaymentIntent. The in-memory map is authoritative
// with read-after-write guaranteed; the durable row is an asynchronous
// mirror. Durable-write failures are logged and counted, never surfaced to
// the caller.
type IntentStore struct {
	mu      sync.RWMutex
	intents map[string]*domain.PaymentIntent
	order   []string

	repo   repository.IntentRepository
	logger *slog.Logger

	queue chan *domain.PaymentIntent
	wg    sync.WaitGroup
	once  sync.Once
}

func NewIntentStore(repo repository.IntentRepository, logger *slog.Logger, queueSize int) *IntentStore {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	s := &IntentStore{
		intents: make(map[string]*domain.PaymentIntent),
		repo:    repo,
		logger:  logger,
		queue:   make(chan *domain.PaymentIntent, queueSize),
	}
	s.wg.Add(1)
	go s.writeLoop()
	return s
}

// Save updates the authoritative record synchronously, then schedules the
// durable write-through. It never blocks on and never fails because of
// storage.
func (s *IntentStore) Save(intent *domain.PaymentIntent) {
	cp := intent.Clone()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	cp.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	if _, ok := s.intents[cp.ID]; !ok {
		s.order = append(s.order, cp.ID)
	}
	s.intents[cp.ID] = cp
	s.mu.Unlock()

	select {
	case s.queue <- cp.Clone():
		observability.PersistenceQueueDepth.Set(float64(len(s.queue)))
	default:
		// Queue full: the in-memory record stays correct, the mirror catches
		// up on the next save of this intent.
		observability.PersistenceFailures.Inc()
		s.logger.Warn("write-through queue full, dropping durable write", "intent_id", cp.ID)
	}
}

func (s *IntentStore) Get(id string) (*domain.PaymentIntent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	intent, ok := s.intents[id]
	if !ok {
		return nil, domain.ErrIntentNotFound
	}
	return intent.Clone(), nil
}

// List returns all intents in insertion order.
func (s *IntentStore) List() []domain.PaymentIntent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PaymentIntent, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.intents[id].Clone())
	}
	return out
}

// Load seeds the in-memory map from durable rows, typically at startup.
func (s *IntentStore) Load(ctx context.Context) error {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range rows {
		row := rows[i]
		if _, ok := s.intents[row.ID]; !ok {
			s.order = append(s.order, row.ID)
		}
		s.intents[row.ID] = row.Clone()
	}
	return nil
}

// Close drains the write-through queue and stops the writer.
func (s *IntentStore) Close() {
	s.once.Do(func() { close(s.queue) })
	s.wg.Wait()
}

func (s *IntentStore) writeLoop() {
	defer s.wg.Done()
	for intent := range s.queue {
		observability.PersistenceQueueDepth.Set(float64(len(s.queue)))
		s.persist(intent)
	}
}

func (s *IntentStore) persist(intent *domain.PaymentIntent) {
	var err error
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err = s.repo.Upsert(ctx, intent)
		cancel()
		if err == nil {
			return
		}
		if attempt < writeAttempts {
			observability.PersistenceRetries.Inc()
			time.Sleep(writeBackoff << (attempt - 1))
		}
	}
	observability.PersistenceFailures.Inc()
	s.logger.Error("durable write-through failed",
		"intent_id", intent.ID,
		"attempts", writeAttempts,
		"error", err.Error(),
	)
}
