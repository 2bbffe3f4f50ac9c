package checkout

import (
	"context"
	"sync"

	"pos-till/internal/cart"
	"pos-till/internal/catalog"
	"pos-till/internal/model"
	"pos-till/internal/promo"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// State of a checkout session. A session moves
// empty -> building -> promo_applied -> committed; Clear returns any
// pre-commit state to empty, and nothing leaves committed.
type State string

const (
	StateEmpty        State = "empty"
	StateBuilding     State = "building"
	StatePromoApplied State = "promo_applied"
	StateCommitted    State = "committed"
)

// Session is one cashier's active sale: a cart plus an optionally previewed
// promotion. Sessions live in memory only; nothing is durable until commit.
type Session struct {
	ID      uuid.UUID
	Cashier string

	mu        sync.Mutex
	cart      *cart.Cart
	promoCode string
	discount  decimal.Decimal
	committed *model.Sale
}

// View is a read-only snapshot of a session for presentation.
type View struct {
	ID        uuid.UUID        `json:"id"`
	Cashier   string           `json:"cashier"`
	State     State            `json:"state"`
	Lines     []model.CartLine `json:"lines"`
	PromoCode string           `json:"promo_code,omitempty"`
	Discount  decimal.Decimal  `json:"discount_percentage"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
	Total     decimal.Decimal  `json:"total"`
	SaleID    int64            `json:"sale_id,omitempty"`
}

func (s *Session) stateLocked() State {
	switch {
	case s.committed != nil:
		return StateCommitted
	case s.cart.Len() == 0:
		return StateEmpty
	case s.promoCode != "":
		return StatePromoApplied
	default:
		return StateBuilding
	}
}

// Snapshot returns the session's current view.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:        s.ID,
		Cashier:   s.Cashier,
		State:     s.stateLocked(),
		Lines:     s.cart.Lines(),
		PromoCode: s.promoCode,
		Discount:  s.discount,
		Subtotal:  s.cart.Subtotal(),
		Total:     s.cart.Total(s.discount),
	}
	if s.committed != nil {
		v.SaleID = s.committed.ID
	}
	return v
}

// AddItem looks the product up in the catalogue and adds quantity units to
// the cart, subject to the cumulative stock check.
func (s *Session) AddItem(cat *catalog.Catalog, code string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.committed != nil {
		return model.ErrCartCommitted
	}

	product, err := cat.Find(code)
	if err != nil {
		return err
	}
	return s.cart.Add(*product, quantity)
}

// ApplyPromo previews a promotion against the session. The discount affects
// displayed totals only; no use is consumed until commit.
func (s *Session) ApplyPromo(promos *promo.Ledger, code string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.committed != nil {
		return decimal.Zero, model.ErrCartCommitted
	}

	discount, err := promos.Preview(code)
	if err != nil {
		return decimal.Zero, err
	}
	s.promoCode = code
	s.discount = discount
	return discount, nil
}

// Clear empties the cart and drops any previewed promotion, returning the
// session to the empty state. Committed sessions cannot be reused.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.committed != nil {
		return model.ErrCartCommitted
	}
	s.cart.Clear()
	s.promoCode = ""
	s.discount = decimal.Zero
	return nil
}

// CommitSession runs the checkout transaction for the session's cart and
// freezes the session on success.
func (s *Service) CommitSession(ctx context.Context, sess *Session) (*model.Sale, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.committed != nil {
		return nil, model.ErrCartCommitted
	}

	sale, err := s.Commit(ctx, sess.cart, sess.Cashier, sess.promoCode)
	if sale != nil {
		sess.committed = sale
	}
	if err != nil {
		return sale, err
	}

	sess.cart.Clear()
	return sale, nil
}

// Manager tracks the active checkout sessions by ID.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[uuid.UUID]*Session)}
}

// Create opens a new session for the cashier.
func (m *Manager) Create(cashier string) *Session {
	sess := &Session{
		ID:       uuid.New(),
		Cashier:  cashier,
		cart:     cart.New(),
		discount: decimal.Zero,
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	return sess
}

// Get returns the session with the given ID.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Remove discards a session.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
