package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/bilardeando/internal/domain/payment"
	"github.com/riskibarqy/bilardeando/internal/domain/user"
	"github.com/riskibarqy/bilardeando/internal/infrastructure/repository/memory"
)

var testNow = time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)

type staticIDGenerator struct {
	id string
}

func (g staticIDGenerator) NewID() (string, error) {
	return g.id, nil
}

type sequenceIDGenerator struct {
	prefix string
	next   atomic.Int64
}

func (g *sequenceIDGenerator) NewID() (string, error) {
	return fmt.Sprintf("%s-%03d", g.prefix, g.next.Add(1)), nil
}

// fakeGateway hands out mock preferences and serves payments registered
// through setPayment.
type fakeGateway struct {
	mu       sync.Mutex
	links    []payment.LinkRequest
	payments map[string]payment.Payment
	linkErr  error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{payments: make(map[string]payment.Payment)}
}

func (g *fakeGateway) CreatePaymentLink(_ context.Context, req payment.LinkRequest) (payment.Link, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.linkErr != nil {
		return payment.Link{}, g.linkErr
	}
	g.links = append(g.links, req)
	prefID := payment.MockPreferenceID(int64(len(g.links)), req.ExternalReference)
	return payment.Link{PreferenceID: prefID, InitPoint: "https://pay.test/" + prefID}, nil
}

func (g *fakeGateway) GetPayment(_ context.Context, paymentID string) (payment.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.payments[paymentID]
	if !ok {
		return payment.Payment{}, fmt.Errorf("%w: %s", payment.ErrPaymentNotFound, paymentID)
	}
	return p, nil
}

func (g *fakeGateway) setPayment(p payment.Payment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[p.ID] = p
}

func (g *fakeGateway) lastLink(t *testing.T) payment.LinkRequest {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.links) == 0 {
		t.Fatalf("expected a payment link to be requested")
	}
	return g.links[len(g.links)-1]
}

func newTestStore() *memory.Store {
	return memory.NewSeededStore(memory.WithClock(func() time.Time { return testNow }))
}

func mustEnsureAccount(t *testing.T, store *memory.Store, userID, name string) user.Account {
	t.Helper()
	service := NewAccountService(memory.NewUserRepository(store), nil)
	service.now = func() time.Time { return testNow }
	acc, err := service.Ensure(t.Context(), user.Principal{UserID: userID, Name: name, Email: userID + "@example.com"})
	if err != nil {
		t.Fatalf("ensure account %s: %v", userID, err)
	}
	return acc
}
