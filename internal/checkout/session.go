package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Poller tracks the open QR sessions by intent id.
type Poller struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewPoller() *Poller {
	return &Poller{sessions: map[string]*Session{}}
}

// Start opens a polling session for intentID, replacing any earlier one.
func (p *Poller) Start(ctx context.Context, f *Flow, bookingID, intentID string) *Session {
	s := &Session{
		flow:      f,
		poller:    p,
		bookingID: bookingID,
		intentID:  intentID,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		outcome:   Outcome{Method: MethodQR, IntentID: intentID},
	}
	p.mu.Lock()
	prev := p.sessions[intentID]
	p.sessions[intentID] = s
	p.mu.Unlock()
	if prev != nil {
		prev.Close()
	}

	go s.run(ctx, f.interval())
	return s
}

func (p *Poller) Get(intentID string) (*Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[intentID]
	return s, ok
}

func (p *Poller) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// Sessions returns a snapshot of the open sessions.
func (p *Poller) Sessions() []*Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	all := make([]*Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		all = append(all, s)
	}
	return all
}

// CloseAll stops every open session, as when the payment screen unmounts.
func (p *Poller) CloseAll() {
	for _, s := range p.Sessions() {
		s.Close()
	}
}

func (p *Poller) remove(s *Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sessions[s.intentID] == s {
		delete(p.sessions, s.intentID)
	}
}

// Session is one open QR: it polls the intent until success or Close.
// Closing never cancels the payment at the provider.
type Session struct {
	flow      *Flow
	poller    *Poller
	bookingID string
	intentID  string

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	doneOnce sync.Once

	mu       sync.Mutex
	closed   bool
	settling bool
	outcome  Outcome
}

func (s *Session) IntentID() string { return s.intentID }

// Done is closed once the session has fully ended.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Close tears the poll down. It has no effect once success is being handled.
func (s *Session) Close() {
	s.mu.Lock()
	if s.settling || s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.outcome.Closed = true
	s.mu.Unlock()
	s.halt()
}

// Check is the user's explicit "I have paid" check. Unlike background
// polls it reports a pending status or a transport error to the user.
func (s *Session) Check(ctx context.Context) (string, error) {
	status, err := s.flow.API.PaymentStatus(ctx, s.intentID)
	if err != nil {
		s.flow.UI.Alert("Could not check payment", ErrorMessage(err))
		return "", err
	}
	if status == statusSucceeded {
		s.settle(ctx)
		return status, nil
	}
	s.flow.UI.Alert("Payment not completed", fmt.Sprintf("Payment status is %q. Finish the payment in your e-wallet app and check again.", status))
	return status, nil
}

func (s *Session) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer s.exit()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			s.Close()
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

// poll is one background check: only success matters.
func (s *Session) poll(ctx context.Context) {
	status, err := s.flow.API.PaymentStatus(ctx, s.intentID)
	if err != nil {
		logEvent("poll_error", fmt.Sprintf("intent_id=%s err=%v", s.intentID, err))
		return
	}
	if status == statusSucceeded {
		s.settle(ctx)
	}
}

// settle handles a succeeded intent exactly once.
func (s *Session) settle(ctx context.Context) {
	s.mu.Lock()
	if s.settling || s.closed {
		s.mu.Unlock()
		return
	}
	s.settling = true
	s.outcome.ProviderConfirmed = true
	s.mu.Unlock()
	s.halt()

	ui := s.flow.UI
	ui.CloseQR()
	if !s.flow.GateSuccessOnPersist {
		ui.ShowSuccess(s.intentID)
	}

	// The money has moved; the booking update must not die with the screen.
	err := s.flow.API.ConfirmPayment(context.WithoutCancel(ctx), s.bookingID, s.intentID)
	if err != nil {
		logEvent("confirm_failed", fmt.Sprintf("booking_id=%s intent_id=%s err=%v", s.bookingID, s.intentID, err))
		ui.Alert("Contact support", supportMessage(s.intentID))
	} else if s.flow.GateSuccessOnPersist {
		ui.ShowSuccess(s.intentID)
	}

	s.mu.Lock()
	s.outcome.Persisted = err == nil
	s.mu.Unlock()
	s.finish()
}

func (s *Session) halt() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.poller.remove(s)
}

// exit runs when the poll loop returns; a settling session finishes itself.
func (s *Session) exit() {
	s.mu.Lock()
	settling := s.settling
	s.mu.Unlock()
	if !settling {
		s.finish()
	}
}

func (s *Session) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}
