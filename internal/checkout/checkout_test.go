package checkout

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeUI struct {
	mu      sync.Mutex
	events  []string
	alerts  []string
	qrShown chan string
	openErr error
}

func newFakeUI() *fakeUI { return &fakeUI{qrShown: make(chan string, 1)} }

func (u *fakeUI) add(e string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.events = append(u.events, e)
}

func (u *fakeUI) RequestSent() { u.add("request_sent") }

func (u *fakeUI) OpenURL(url string) error {
	u.add("open:" + url)
	return u.openErr
}

func (u *fakeUI) CloseQR() { u.add("close_qr") }

func (u *fakeUI) ShowSuccess(intentID string) { u.add("success:" + intentID) }

func (u *fakeUI) ShowQR(intentID, imageURL string, amount float64) {
	u.add("show_qr:" + intentID)
	u.qrShown <- intentID
}

func (u *fakeUI) Alert(title, message string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.events = append(u.events, "alert:"+title)
	u.alerts = append(u.alerts, message)
}

func (u *fakeUI) snapshot() ([]string, []string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.events...), append([]string(nil), u.alerts...)
}

type fakeAPI struct {
	mu          sync.Mutex
	statuses    []string
	statusErrs  map[int]error
	polls       int
	confirmErr  error
	confirmed   []string
	createErr   error
	updated     map[string]any
	checkoutURL string
	// ui, when set, logs confirmations next to the UI events.
	ui          *fakeUI
}

func (a *fakeAPI) UpdateBooking(_ context.Context, id string, payload map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.updated = payload
	return a.createErr
}

func (a *fakeAPI) CreateCheckout(context.Context, PaymentRequest) (string, error) {
	return a.checkoutURL, a.createErr
}

func (a *fakeAPI) CreateQR(_ context.Context, req PaymentRequest) (QRCode, error) {
	if a.createErr != nil {
		return QRCode{}, a.createErr
	}
	return QRCode{IntentID: "pi_1", ImageURL: "https://qr.test/pi_1.png", Amount: req.Amount}, nil
}

func (a *fakeAPI) PaymentStatus(context.Context, string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := a.polls
	a.polls++
	if err := a.statusErrs[n]; err != nil {
		return "", err
	}
	if n < len(a.statuses) {
		return a.statuses[n], nil
	}
	return "awaiting_payment_method", nil
}

func (a *fakeAPI) ConfirmPayment(_ context.Context, bookingID, intentID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.confirmed = append(a.confirmed, bookingID+"/"+intentID)
	if a.ui != nil {
		a.ui.add("confirm:" + intentID)
	}
	return a.confirmErr
}

func qrRequest() PayRequest {
	return PayRequest{BookingID: "b1", PaymentMethod: "Gcash", Payment: PaymentRequest{Amount: 1050, Description: "Tent"}}
}

func TestParseMethod(t *testing.T) {
	for label, want := range map[string]Method{
		"Cash on Delivery": MethodCash,
		"cash":             MethodCash,
		"QRPh":             MethodRedirect,
		"Gcash":            MethodQR,
	} {
		got, err := ParseMethod(label)
		require.NoError(t, err, label)
		require.Equal(t, want, got, label)
	}
	_, err := ParseMethod("Bitcoin")
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestQRSucceedsOnThirdPoll(t *testing.T) {
	api := &fakeAPI{
		statuses:   []string{"awaiting_payment_method", "", "succeeded"},
		statusErrs: map[int]error{1: errors.New("network down")},
	}
	ui := newFakeUI()
	api.ui = ui
	f := &Flow{API: api, UI: ui, Interval: 5 * time.Millisecond}

	out, err := f.Pay(context.Background(), qrRequest())
	require.NoError(t, err)
	require.True(t, out.ProviderConfirmed)
	require.True(t, out.Persisted)
	require.Equal(t, "pi_1", out.IntentID)
	require.Equal(t, 3, api.polls)
	require.Equal(t, []string{"b1/pi_1"}, api.confirmed)

	events, alerts := ui.snapshot()
	require.Equal(t, []string{"show_qr:pi_1", "close_qr", "success:pi_1", "confirm:pi_1"}, events)
	require.Empty(t, alerts, "background polls must stay silent")
	require.Equal(t, 0, f.Poller.Len())
}

func TestQRPersistFailureStillShowsSuccess(t *testing.T) {
	api := &fakeAPI{statuses: []string{"awaiting_payment_method", "awaiting_payment_method", "succeeded"}, confirmErr: errors.New("500")}
	ui := newFakeUI()
	api.ui = ui
	f := &Flow{API: api, UI: ui, Interval: 5 * time.Millisecond}

	out, err := f.Pay(context.Background(), qrRequest())
	require.NoError(t, err)
	require.True(t, out.ProviderConfirmed)
	require.False(t, out.Persisted)

	events, alerts := ui.snapshot()
	require.Equal(t, []string{"show_qr:pi_1", "close_qr", "success:pi_1", "confirm:pi_1", "alert:Contact support"}, events)
	require.Len(t, alerts, 1)
	require.Contains(t, alerts[0], "pi_1")
}

func TestQRGateSuccessOnPersist(t *testing.T) {
	api := &fakeAPI{statuses: []string{"succeeded"}, confirmErr: errors.New("500")}
	ui := newFakeUI()
	api.ui = ui
	f := &Flow{API: api, UI: ui, Interval: 5 * time.Millisecond, GateSuccessOnPersist: true}

	out, err := f.Pay(context.Background(), qrRequest())
	require.NoError(t, err)
	require.False(t, out.Persisted)

	events, _ := ui.snapshot()
	require.Equal(t, []string{"show_qr:pi_1", "close_qr", "confirm:pi_1", "alert:Contact support"}, events)
}

func TestQRGateSuccessShowsAfterPersist(t *testing.T) {
	api := &fakeAPI{statuses: []string{"succeeded"}}
	ui := newFakeUI()
	api.ui = ui
	f := &Flow{API: api, UI: ui, Interval: 5 * time.Millisecond, GateSuccessOnPersist: true}

	out, err := f.Pay(context.Background(), qrRequest())
	require.NoError(t, err)
	require.True(t, out.Persisted)

	events, _ := ui.snapshot()
	require.Equal(t, []string{"show_qr:pi_1", "close_qr", "confirm:pi_1", "success:pi_1"}, events)
}

func TestQRCloseStopsPolling(t *testing.T) {
	api := &fakeAPI{}
	ui := newFakeUI()
	f := &Flow{API: api, UI: ui, Interval: 2 * time.Millisecond, Poller: NewPoller()}

	go func() {
		id := <-ui.qrShown
		time.Sleep(10 * time.Millisecond)
		if s, ok := f.Poller.Get(id); ok {
			s.Close()
		}
	}()

	out, err := f.Pay(context.Background(), qrRequest())
	require.NoError(t, err)
	require.True(t, out.Closed)
	require.False(t, out.ProviderConfirmed)
	require.Empty(t, api.confirmed)

	api.mu.Lock()
	polls := api.polls
	api.mu.Unlock()
	time.Sleep(10 * time.Millisecond)
	api.mu.Lock()
	defer api.mu.Unlock()
	require.Equal(t, polls, api.polls, "polling continued after close")
}

func TestQRContextCancelClosesSession(t *testing.T) {
	api := &fakeAPI{}
	ui := newFakeUI()
	f := &Flow{API: api, UI: ui, Interval: 2 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()

	out, err := f.Pay(ctx, qrRequest())
	require.NoError(t, err)
	require.True(t, out.Closed)
}

func TestManualCheckAlertsOnPending(t *testing.T) {
	api := &fakeAPI{statuses: []string{"awaiting_payment_method", "succeeded"}}
	ui := newFakeUI()
	f := &Flow{API: api, UI: ui, Interval: time.Hour}
	s := f.poller().Start(context.Background(), f, "b1", "pi_1")

	status, err := s.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, "awaiting_payment_method", status)
	_, alerts := ui.snapshot()
	require.Len(t, alerts, 1)

	status, err = s.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, "succeeded", status)
	<-s.Done()
	require.True(t, s.Outcome().Persisted)
}

func TestCloseAll(t *testing.T) {
	p := NewPoller()
	f := &Flow{API: &fakeAPI{}, UI: newFakeUI(), Interval: time.Hour, Poller: p}
	a := p.Start(context.Background(), f, "b1", "pi_a")
	b := p.Start(context.Background(), f, "b2", "pi_b")
	require.Equal(t, 2, p.Len())

	p.CloseAll()
	<-a.Done()
	<-b.Done()
	require.Equal(t, 0, p.Len())
}

func TestCashBranch(t *testing.T) {
	api := &fakeAPI{}
	ui := newFakeUI()
	f := &Flow{API: api, UI: ui}

	out, err := f.Pay(context.Background(), PayRequest{BookingID: "b1", PaymentMethod: "Cash on Delivery", Booking: map[string]any{"rentalPeriod": "Day"}})
	require.NoError(t, err)
	require.True(t, out.Persisted)
	require.Equal(t, "Day", api.updated["rentalPeriod"])
	events, _ := ui.snapshot()
	require.Equal(t, []string{"request_sent"}, events)
}

func TestRedirectBranch(t *testing.T) {
	api := &fakeAPI{checkoutURL: "https://checkout.test/cs_1"}
	ui := newFakeUI()
	f := &Flow{API: api, UI: ui}

	out, err := f.Pay(context.Background(), PayRequest{BookingID: "b1", PaymentMethod: "QRPh", Payment: PaymentRequest{Amount: 10}})
	require.NoError(t, err)
	require.Equal(t, "https://checkout.test/cs_1", out.CheckoutURL)
	require.False(t, out.Persisted)
	require.Zero(t, api.polls)
}

func TestInitiationFailureAlerts(t *testing.T) {
	he := &HTTPError{StatusCode: http.StatusBadGateway, Message: "payment provider: bad"}
	he.Details.Errors = []ProviderError{{Code: "parameter_below_minimum", Detail: "amount cannot be less than 100"}}
	api := &fakeAPI{createErr: he}
	ui := newFakeUI()
	f := &Flow{API: api, UI: ui}

	_, err := f.Pay(context.Background(), qrRequest())
	require.Error(t, err)
	_, alerts := ui.snapshot()
	require.Equal(t, []string{"amount cannot be less than 100"}, alerts)
	require.Empty(t, api.confirmed)
}

func TestErrorMessageOrder(t *testing.T) {
	withDetail := &HTTPError{StatusCode: 502, Message: "server msg"}
	withDetail.Details.Errors = []ProviderError{{Detail: " "}, {Detail: "nested detail"}}
	withDetail.Details.Message = "provider msg"
	providerMsg := &HTTPError{StatusCode: 502, Message: "server msg"}
	providerMsg.Details.Message = "provider msg"

	cases := []struct {
		err  error
		want string
	}{
		{withDetail, "nested detail"},
		{providerMsg, "provider msg"},
		{&HTTPError{StatusCode: 500, Message: "server msg"}, "server msg"},
		{&HTTPError{StatusCode: 503}, "Service Unavailable"},
		{&HTTPError{StatusCode: 599}, FallbackMessage},
		{errors.New("dial tcp: refused"), "dial tcp: refused"},
		{nil, FallbackMessage},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ErrorMessage(tc.err))
	}
}

func TestHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing auth header")
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/payment/qrph":
			_, _ = w.Write([]byte(`{"success":true,"qrCode":{"imageUrl":"https://qr.test/x.png","amount":1050},"paymentIntentId":"pi_9"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/payment/gcash":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":"payment provider: x","code":"upstream_error","details":{"errors":[{"code":"c","detail":"provider says no"}],"message":""},"message":"payment provider: x"}`))
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/payment/status/"):
			_, _ = w.Write([]byte(`{"success":true,"status":"succeeded"}`))
		case r.Method == http.MethodPut && r.URL.Path == "/book/payment/b1":
			_, _ = w.Write([]byte(`{"message":"payment recorded"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", "tok")
	ctx := context.Background()

	qr, err := c.CreateQR(ctx, PaymentRequest{Amount: 1050})
	require.NoError(t, err)
	require.Equal(t, QRCode{IntentID: "pi_9", ImageURL: "https://qr.test/x.png", Amount: 1050}, qr)

	_, err = c.CreateCheckout(ctx, PaymentRequest{Amount: 1})
	require.Error(t, err)
	require.Equal(t, "provider says no", ErrorMessage(err))

	status, err := c.PaymentStatus(ctx, "pi_9")
	require.NoError(t, err)
	require.Equal(t, "succeeded", status)

	require.NoError(t, c.ConfirmPayment(ctx, "b1", "pi_9"))

	err = c.UpdateBooking(ctx, "missing", map[string]any{})
	var he *HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusNotFound, he.StatusCode)
}
