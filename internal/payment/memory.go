package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"headless-storefront/internal/domain"
)

type keyedCreate struct {
	id       string
	amount   int64
	currency string
}

// Memory is an in-process Processor for local runs without processor
// credentials and for tests. Intents stay open until Confirm is called.
type Memory struct {
	mu          sync.Mutex
	intents     map[string]*domain.PaymentIntent
	idempotency map[string]keyedCreate
	order       []string
	creates     int
}

func NewMemory() *Memory {
	return &Memory{
		intents:     make(map[string]*domain.PaymentIntent),
		idempotency: make(map[string]keyedCreate),
	}
}

func (m *Memory) FindByCart(_ context.Context, cartID string) (*domain.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var succeeded *domain.PaymentIntent
	for _, id := range m.order {
		pi := m.intents[id]
		if pi.Metadata[domain.MetaCartID] != cartID {
			continue
		}
		switch pi.Status {
		case domain.PaymentIntentCanceled:
			continue
		case domain.PaymentIntentSucceeded:
			if succeeded == nil {
				succeeded = pi
			}
		default:
			return clone(pi), nil
		}
	}
	if succeeded == nil {
		return nil, domain.ErrNotFound
	}
	return clone(succeeded), nil
}

func (m *Memory) Create(_ context.Context, p IntentParams) (*domain.PaymentIntent, error) {
	if p.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.IdempotencyKey != "" {
		if prev, ok := m.idempotency[p.IdempotencyKey]; ok {
			if prev.amount != p.Amount || prev.currency != p.Currency {
				return nil, fmt.Errorf("create intent: %w", ErrIdempotencyConflict)
			}
			return clone(m.intents[prev.id]), nil
		}
	}
	id := "pi_mock_" + uuid.NewString()
	pi := &domain.PaymentIntent{
		ID:           id,
		Amount:       p.Amount,
		Currency:     p.Currency,
		ClientSecret: id + "_secret_" + uuid.NewString(),
		Status:       domain.PaymentIntentRequiresPayment,
		Metadata:     make(map[string]string, len(p.Metadata)),
	}
	mergeMetadata(pi.Metadata, p.Metadata)
	m.intents[id] = pi
	m.order = append(m.order, id)
	if p.IdempotencyKey != "" {
		m.idempotency[p.IdempotencyKey] = keyedCreate{id: id, amount: p.Amount, currency: p.Currency}
	}
	m.creates++
	return clone(pi), nil
}

func (m *Memory) Update(_ context.Context, id string, p IntentParams) (*domain.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pi, ok := m.intents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if pi.Status == domain.PaymentIntentSucceeded || pi.Status == domain.PaymentIntentCanceled {
		return nil, fmt.Errorf("%w: intent %s is %s", domain.ErrInvalidInput, id, pi.Status)
	}
	if p.Amount > 0 {
		pi.Amount = p.Amount
	}
	mergeMetadata(pi.Metadata, p.Metadata)
	return clone(pi), nil
}

func (m *Memory) Get(_ context.Context, id string) (*domain.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pi, ok := m.intents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(pi), nil
}

// Confirm marks an intent as paid.
func (m *Memory) Confirm(id string) error {
	return m.setStatus(id, domain.PaymentIntentSucceeded)
}

func (m *Memory) Cancel(id string) error {
	return m.setStatus(id, domain.PaymentIntentCanceled)
}

// Creates reports how many distinct intents were created.
func (m *Memory) Creates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates
}

func (m *Memory) setStatus(id string, status domain.PaymentIntentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pi, ok := m.intents[id]
	if !ok {
		return domain.ErrNotFound
	}
	pi.Status = status
	return nil
}

// mergeMetadata follows processor semantics: an empty value unsets the key.
func mergeMetadata(dst, src map[string]string) {
	for k, v := range src {
		if v == "" {
			delete(dst, k)
			continue
		}
		dst[k] = v
	}
}

func clone(pi *domain.PaymentIntent) *domain.PaymentIntent {
	out := *pi
	out.Metadata = make(map[string]string, len(pi.Metadata))
	for k, v := range pi.Metadata {
		out.Metadata[k] = v
	}
	return &out
}
