package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"rentalhub/internal/domain"
	"rentalhub/internal/domain/models"
	"rentalhub/internal/notify"
	"rentalhub/internal/repositories"
)

type memBookings struct {
	mu        sync.Mutex
	rows      map[string]models.Booking
	statusErr error
}

func newMemBookings(bs ...models.Booking) *memBookings {
	m := &memBookings{rows: map[string]models.Booking{}}
	for _, b := range bs {
		m.rows[b.ID] = b
	}
	return m
}

func (m *memBookings) Create(_ context.Context, b models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[b.ID] = b
	return nil
}

func (m *memBookings) GetByID(_ context.Context, id string) (models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return models.Booking{}, sql.ErrNoRows
	}
	return b, nil
}

func (m *memBookings) GetByIntentID(_ context.Context, intentID string) (models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.rows {
		if b.PaymentIntentID == intentID {
			return b, nil
		}
	}
	return models.Booking{}, sql.ErrNoRows
}

func (m *memBookings) Update(_ context.Context, b models.Booking, expected domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[b.ID]
	if !ok || cur.Status != expected {
		return repositories.ErrStatusChanged
	}
	m.rows[b.ID] = b
	return nil
}

func (m *memBookings) UpdateStatus(_ context.Context, id string, from, to domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statusErr != nil {
		return m.statusErr
	}
	cur, ok := m.rows[id]
	if !ok || cur.Status != from {
		return repositories.ErrStatusChanged
	}
	cur.Status = to
	m.rows[id] = cur
	return nil
}

func (m *memBookings) UpdateFinancials(_ context.Context, id string, f models.Financials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[id]
	if !ok {
		return sql.ErrNoRows
	}
	cur.Financials = f
	m.rows[id] = cur
	return nil
}

func (m *memBookings) RecordPayment(_ context.Context, id, intentID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[id]
	if !ok {
		return sql.ErrNoRows
	}
	cur.PaymentIntentID = intentID
	cur.PaymentStatus = status
	m.rows[id] = cur
	return nil
}

func (m *memBookings) MarkRead(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[id]
	if !ok {
		return sql.ErrNoRows
	}
	cur.IsRead = true
	cur.ReadAt = &at
	m.rows[id] = cur
	return nil
}

func (m *memBookings) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.rows, id)
	return nil
}

func (m *memBookings) filter(keep func(models.Booking) bool) []models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.rows {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func (m *memBookings) ListByCustomer(_ context.Context, id string) ([]models.Booking, error) {
	return m.filter(func(b models.Booking) bool { return b.CustomerID == id && b.Status != domain.StatusCart }), nil
}

func (m *memBookings) ListActiveByCustomer(_ context.Context, id string) ([]models.Booking, error) {
	return m.filter(func(b models.Booking) bool {
		return b.CustomerID == id && (b.Status == domain.StatusBooked || b.Status == domain.StatusApproved || b.Status == domain.StatusOngoing)
	}), nil
}

func (m *memBookings) ListByOwner(_ context.Context, id string) ([]models.Booking, error) {
	return m.filter(func(b models.Booking) bool { return b.OwnerID == id && b.Status != domain.StatusCart }), nil
}

func (m *memBookings) ListCart(_ context.Context, id string) ([]models.Booking, error) {
	return m.filter(func(b models.Booking) bool { return b.CustomerID == id && b.Status == domain.StatusCart }), nil
}

type memItems map[string]models.Item

func (m memItems) GetByID(_ context.Context, id string) (models.Item, error) {
	it, ok := m[id]
	if !ok {
		return models.Item{}, sql.ErrNoRows
	}
	return it, nil
}

type memUsers map[string]models.User

func (m memUsers) GetByID(_ context.Context, id string) (models.User, error) {
	u, ok := m[id]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (m memUsers) GetByEmail(_ context.Context, email string) (models.User, error) {
	for _, u := range m {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, sql.ErrNoRows
}

type memHistories []models.History

func (m memHistories) GetByID(_ context.Context, id string) (models.History, error) {
	for _, h := range m {
		if h.ID == id {
			return h, nil
		}
	}
	return models.History{}, sql.ErrNoRows
}

func (m memHistories) ListByCustomer(_ context.Context, id string) ([]models.History, error) {
	var out []models.History
	for _, h := range m {
		if h.CustomerID == id {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m memHistories) ListByOwner(_ context.Context, id string) ([]models.History, error) {
	var out []models.History
	for _, h := range m {
		if h.OwnerID == id {
			out = append(out, h)
		}
	}
	return out, nil
}

// memArchiver settles returns against a memBookings store.
type memArchiver struct {
	bookings  *memBookings
	available int
	err       error
}

func (a *memArchiver) Archive(ctx context.Context, bookingID, historyID string, at time.Time) (repositories.ReturnResult, error) {
	if a.err != nil {
		return repositories.ReturnResult{}, a.err
	}
	b, err := a.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return repositories.ReturnResult{}, err
	}
	if _, err := domain.Transition(b.Status, domain.EventReturn); err != nil {
		return repositories.ReturnResult{}, err
	}
	_ = a.bookings.Delete(ctx, bookingID)
	a.available++
	return repositories.ReturnResult{History: models.NewHistory(historyID, b, at), AvailableQuantity: a.available}, nil
}

type memLedger struct {
	mu      sync.Mutex
	rows    map[string]models.PaymentIntentRecord
	saveErr error
}

func newMemLedger() *memLedger {
	return &memLedger{rows: map[string]models.PaymentIntentRecord{}}
}

func (l *memLedger) Save(_ context.Context, p models.PaymentIntentRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.saveErr != nil {
		return l.saveErr
	}
	l.rows[p.IntentID] = p
	return nil
}

func (l *memLedger) UpdateStatus(_ context.Context, intentID, status string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.rows[intentID]
	if !ok {
		return sql.ErrNoRows
	}
	p.Status = status
	l.rows[intentID] = p
	return nil
}

func (l *memLedger) GetByIntentID(_ context.Context, intentID string) (models.PaymentIntentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.rows[intentID]
	if !ok {
		return models.PaymentIntentRecord{}, sql.ErrNoRows
	}
	return p, nil
}

func (l *memLedger) LinkBooking(_ context.Context, intentID, bookingID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.rows[intentID]
	if !ok {
		return sql.ErrNoRows
	}
	p.BookingID = bookingID
	l.rows[intentID] = p
	return nil
}

type stubVerifier struct {
	status string
	err    error
}

func (v stubVerifier) IntentStatus(context.Context, string) (string, error) { return v.status, v.err }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, m := range n.sent {
		out = append(out, m.Data["kind"])
	}
	return out
}

var errBoom = errors.New("boom")
