package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"rentalhub/internal/checkout"

	"github.com/spf13/pflag"
)

// terminalUI renders the checkout flow as plain text.
type terminalUI struct {
	mu  sync.Mutex
	out io.Writer
}

func (u *terminalUI) printf(format string, args ...any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintf(u.out, format, args...)
}

func (u *terminalUI) RequestSent() { u.printf("Request sent. Pay the owner on delivery.\n") }

func (u *terminalUI) OpenURL(url string) error {
	u.printf("Open this link to pay:\n  %s\n", url)
	return nil
}

func (u *terminalUI) ShowQR(intentID, imageURL string, amount float64) {
	u.printf("Scan the QR code to pay PHP %.2f:\n  %s\nReference: %s\nPress Enter to check now, Ctrl-C to close.\n", amount, imageURL, intentID)
}

func (u *terminalUI) CloseQR() { u.printf("QR closed.\n") }

func (u *terminalUI) ShowSuccess(intentID string) {
	u.printf("Payment successful (reference %s).\n", intentID)
}

func (u *terminalUI) Alert(title, message string) { u.printf("%s: %s\n", title, message) }

func runPay(args []string, out io.Writer) error {
	var (
		server   string
		token    string
		req      checkout.PayRequest
		interval time.Duration
		gate     bool
		payload  string
	)
	fs := pflag.NewFlagSet("pay", pflag.ContinueOnError)
	fs.StringVar(&server, "server", "http://localhost:8080", "marketplace server base URL")
	fs.StringVar(&token, "token", os.Getenv("RENTALHUB_TOKEN"), "bearer token")
	fs.StringVar(&req.BookingID, "booking", "", "booking id")
	fs.StringVar(&req.PaymentMethod, "method", "Gcash", `payment method: Gcash, QRPh or "Cash on Delivery"`)
	fs.Float64Var(&req.Payment.Amount, "amount", 0, "amount to pay in pesos")
	fs.StringVar(&req.Payment.Description, "description", "Rental payment", "payment description")
	fs.StringVar(&req.Payment.Name, "name", "", "payer name")
	fs.StringVar(&req.Payment.Email, "email", "", "payer email")
	fs.StringVar(&req.Payment.Phone, "phone", "", "payer phone")
	fs.DurationVar(&interval, "interval", checkout.DefaultPollInterval, "QR status poll interval")
	fs.StringVar(&payload, "payload", "", "JSON file with the full booking (cash payments)")
	fs.BoolVar(&gate, "gate-success", false, "show success only after the booking is marked paid")
	if ok, err := parseFlags(fs, args, out); !ok {
		return err
	}
	if req.BookingID == "" {
		return fmt.Errorf("--booking is required")
	}
	req.Payment.BookingID = req.BookingID
	method, err := checkout.ParseMethod(req.PaymentMethod)
	if err != nil {
		return err
	}
	if method == checkout.MethodCash {
		if payload == "" {
			return fmt.Errorf("--payload is required for cash payments")
		}
		if req.Booking, err = readPayload(payload); err != nil {
			return err
		}
	}

	ui := &terminalUI{out: out}
	poller := checkout.NewPoller()
	flow := &checkout.Flow{
		API:                  checkout.NewHTTPClient(server, token),
		UI:                   ui,
		Poller:               poller,
		Interval:             interval,
		GateSuccessOnPersist: gate,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer poller.CloseAll()

	go checkOnEnter(ctx, os.Stdin, poller)

	res, err := flow.Pay(ctx, req)
	if err != nil {
		return err
	}
	switch {
	case res.ProviderConfirmed && !res.Persisted:
		return fmt.Errorf("payment %s was taken but the booking was not updated", res.IntentID)
	case res.Closed:
		fmt.Fprintln(out, "Stopped checking. The payment, if completed, is still valid.")
	}
	return nil
}

func readPayload(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse payload %s: %w", path, err)
	}
	return m, nil
}

// checkOnEnter runs a manual status check for every open QR on each line
// read from in.
func checkOnEnter(ctx context.Context, in io.Reader, poller *checkout.Poller) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		for _, s := range poller.Sessions() {
			_, _ = s.Check(ctx)
		}
	}
}
