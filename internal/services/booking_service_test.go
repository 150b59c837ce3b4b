package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"rentalhub/internal/domain"
	"rentalhub/internal/domain/models"
	"rentalhub/internal/notify"
	"rentalhub/internal/repositories"
)

var manila = time.FixedZone("PHT", 8*3600)

func fixedNow() time.Time { return time.Date(2026, 2, 20, 1, 0, 0, 0, time.UTC) }

func validGuarantors() [2]models.Guarantor {
	return [2]models.Guarantor{
		{FullName: "Ana Cruz", Phone: "09171234567", Address: "Zone 1, Bulan", Email: "ana@example.com"},
		{FullName: "Ben Reyes", Phone: "09181234567", Address: "Zone 2, Bulan", Email: "ben@example.com"},
	}
}

type bookingFixture struct {
	svc      BookingService
	bookings *memBookings
	notifier *recordingNotifier
	ledger   *memLedger
}

func newBookingFixture(bs ...models.Booking) bookingFixture {
	f := bookingFixture{
		bookings: newMemBookings(bs...),
		notifier: &recordingNotifier{},
		ledger:   newMemLedger(),
	}
	ids := 0
	f.svc = BookingService{
		Bookings: f.bookings,
		Items: memItems{
			"item-1": {ID: "item-1", OwnerID: "owner-1", Product: "Tent", Category: "Camping", Location: "Bulan", PricePerDay: 500, Quantity: 3, AvailableQuantity: 2},
		},
		Users: memUsers{
			"cust-1":  {ID: "cust-1", Name: "Carla", Email: "carla@example.com", Phone: "09170000000", PushToken: "ExponentPushToken[c]"},
			"owner-1": {ID: "owner-1", Name: "Oscar", Email: "oscar@example.com"},
		},
		Histories: memHistories{},
		Ledger:    f.ledger,
		Notifier:  f.notifier,
		Location:  manila,
		Now:       fixedNow,
		NewID: func() string {
			ids++
			return fmt.Sprintf("bk-%d", ids)
		},
		RequestID: "req-test",
	}
	f.svc.Returns = &memArchiver{bookings: f.bookings, available: 2}
	return f
}

func storedBooking(id string, status domain.Status) models.Booking {
	return models.Booking{
		ID:         id,
		ItemID:     "item-1",
		CustomerID: "cust-1",
		OwnerID:    "owner-1",
		Item:       models.ItemSnapshot{Product: "Tent", PricePerDay: 500},
		Customer:   models.CustomerSnapshot{Name: "Carla", Email: "carla@example.com"},
		Terms: models.RentalTerms{
			RentalPeriod:  "Day",
			PickUpDate:    time.Date(2026, 3, 1, 9, 0, 0, 0, manila),
			ReturnDate:    time.Date(2026, 3, 3, 9, 0, 0, 0, manila),
			PaymentMethod: "Gcash",
		},
		Financials: models.Financials{Amount: 1000, RentalDuration: 2, RatePerPeriod: 500, DeliveryCharge: 50, GrandTotal: 1},
		Guarantors: validGuarantors(),
		Status:     status,
	}
}

func createInput() CreateInput {
	return CreateInput{
		ItemID:        "item-1",
		CustomerID:    "cust-1",
		RentalPeriod:  "Day",
		PickUpDate:    time.Date(2026, 3, 1, 9, 0, 0, 0, manila),
		ReturnDate:    time.Date(2026, 3, 3, 9, 0, 0, 0, manila),
		PaymentMethod: "Cash on Delivery",
		Guarantors:    validGuarantors(),
	}
}

func TestBookingCreatePendingWithDefaultDelivery(t *testing.T) {
	f := newBookingFixture()
	res, err := f.svc.Create(context.Background(), createInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if res.BookingID != "bk-1" || res.RentalDays != 2 || res.TotalAmount != 1000 || res.PricePerDay != 500 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.GrandTotal != 1050 {
		t.Fatalf("grand total = %v, want 1050", res.GrandTotal)
	}

	b := f.bookings.rows["bk-1"]
	if b.Status != domain.StatusPending {
		t.Fatalf("status = %q, want pending", b.Status)
	}
	if b.Financials.DeliveryCharge != models.DefaultDeliveryCharge {
		t.Fatalf("delivery charge = %v", b.Financials.DeliveryCharge)
	}
	if b.Customer.Name != "Carla" || b.Item.Product != "Tent" || b.OwnerID != "owner-1" {
		t.Fatalf("snapshots not copied: %+v", b)
	}
	kinds := f.notifier.kinds()
	if len(kinds) != 2 || kinds[0] != string(notify.KindRequestSent) || kinds[1] != string(notify.KindNewRequest) {
		t.Fatalf("notifications = %v", kinds)
	}
}

func TestBookingCreateSameDayBillsHourly(t *testing.T) {
	f := newBookingFixture()
	in := createInput()
	in.ReturnDate = time.Date(2026, 3, 1, 15, 0, 0, 0, manila)
	fee := 0.0
	in.DeliveryCharge = &fee

	res, err := f.svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !res.Quote.SameDay || res.Quote.Duration != 6 || res.GrandTotal != 125 {
		t.Fatalf("unexpected quote: %+v grand=%v", res.Quote, res.GrandTotal)
	}
	b := f.bookings.rows[res.BookingID]
	if b.Terms.RentalPeriod != "Day" {
		t.Fatalf("selected period should be kept, got %q", b.Terms.RentalPeriod)
	}
	if b.Financials.RatePerPeriod != 20.83 {
		t.Fatalf("rate per period = %v", b.Financials.RatePerPeriod)
	}
}

func TestBookingCreateCartSkipsGuarantorsAndNotifications(t *testing.T) {
	f := newBookingFixture()
	in := createInput()
	in.AsCart = true
	in.Guarantors = [2]models.Guarantor{}

	res, err := f.svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if res.Status != domain.StatusCart {
		t.Fatalf("status = %q, want cart", res.Status)
	}
	if len(f.notifier.kinds()) != 0 {
		t.Fatalf("cart bookings must not notify")
	}
}

func TestBookingCreateErrors(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*CreateInput)
		check func(error) bool
	}{
		{"missing item", func(in *CreateInput) { in.ItemID = "nope" }, domain.IsNotFound},
		{"bad period", func(in *CreateInput) { in.RentalPeriod = "Month" }, domain.IsValidation},
		{"return before pickup", func(in *CreateInput) { in.ReturnDate = in.PickUpDate.Add(-time.Hour) }, domain.IsValidation},
		{"incomplete guarantor", func(in *CreateInput) { in.Guarantors[1].Email = "" }, domain.IsValidation},
		{"negative delivery", func(in *CreateInput) { v := -1.0; in.DeliveryCharge = &v }, domain.IsValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newBookingFixture()
			in := createInput()
			tc.edit(&in)
			_, err := f.svc.Create(context.Background(), in)
			if err == nil || !tc.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(f.bookings.rows) != 0 {
				t.Fatalf("nothing should be persisted")
			}
		})
	}
}

func TestBookingUpdateOnlyBeforeSubmission(t *testing.T) {
	f := newBookingFixture(storedBooking("b1", domain.StatusPending), storedBooking("b2", domain.StatusBooked))

	in := createInput()
	in.ReturnDate = time.Date(2026, 3, 4, 9, 0, 0, 0, manila)
	b, err := f.svc.Update(context.Background(), "b1", in)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if b.Status != domain.StatusPending || b.Financials.GrandTotal != 1550 {
		t.Fatalf("unexpected booking: status=%q grand=%v", b.Status, b.Financials.GrandTotal)
	}

	if _, err := f.svc.Update(context.Background(), "b2", in); !domain.IsConflict(err) {
		t.Fatalf("expected conflict for booked booking, got %v", err)
	}
}

func TestBookingTransitions(t *testing.T) {
	cases := []struct {
		name string
		from domain.Status
		run  func(BookingService, context.Context, string) (TransitionResult, error)
		want domain.Status
	}{
		{"submit", domain.StatusCart, BookingService.Submit, domain.StatusPending},
		{"accept", domain.StatusPending, BookingService.AcceptRequest, domain.StatusBooked},
		{"approve", domain.StatusPending, BookingService.Approve, domain.StatusApproved},
		{"reject", domain.StatusPending, BookingService.Reject, domain.StatusRejected},
		{"reject booking", domain.StatusBooked, BookingService.RejectBooking, domain.StatusRejectedToRent},
		{"cancel", domain.StatusApproved, BookingService.Cancel, domain.StatusCancelled},
		{"start", domain.StatusApprovedToRent, BookingService.Start, domain.StatusOngoing},
		{"terminate", domain.StatusOngoing, BookingService.Terminate, domain.StatusTerminated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newBookingFixture(storedBooking("b1", tc.from))
			res, err := tc.run(f.svc, context.Background(), "b1")
			if err != nil {
				t.Fatalf("transition returned error: %v", err)
			}
			if !res.Changed || res.Booking.Status != tc.want {
				t.Fatalf("result = %+v, want %q", res, tc.want)
			}
			if got := f.bookings.rows["b1"].Status; got != tc.want {
				t.Fatalf("stored status = %q, want %q", got, tc.want)
			}
			if len(f.notifier.kinds()) == 0 {
				t.Fatalf("expected a notification")
			}
		})
	}
}

func TestBookingIllegalTransitionLeavesStatus(t *testing.T) {
	f := newBookingFixture(storedBooking("b1", domain.StatusCancelled))
	_, err := f.svc.Start(context.Background(), "b1")
	if !domain.IsIllegalTransition(err) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
	if f.bookings.rows["b1"].Status != domain.StatusCancelled {
		t.Fatalf("status must be unchanged")
	}
	if len(f.notifier.kinds()) != 0 {
		t.Fatalf("no notification expected")
	}
}

func TestBookingReapplyIsNoop(t *testing.T) {
	f := newBookingFixture(storedBooking("b1", domain.StatusApproved))
	res, err := f.svc.Approve(context.Background(), "b1")
	if err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}
	if res.Changed || res.Booking.Status != domain.StatusApproved {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(f.notifier.kinds()) != 0 {
		t.Fatalf("no-op must not notify")
	}
}

func TestBookingApproveRecomputesGrandTotal(t *testing.T) {
	f := newBookingFixture(storedBooking("b1", domain.StatusPending))
	res, err := f.svc.Approve(context.Background(), "b1")
	if err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}
	if res.Booking.Financials.GrandTotal != 1050 || f.bookings.rows["b1"].Financials.GrandTotal != 1050 {
		t.Fatalf("grand total not recomputed: %+v", res.Booking.Financials)
	}
}

func TestBookingLostRaceIsConflict(t *testing.T) {
	f := newBookingFixture(storedBooking("b1", domain.StatusPending))
	f.bookings.statusErr = repositories.ErrStatusChanged
	_, err := f.svc.AcceptRequest(context.Background(), "b1")
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestBookingNotifierFailureIsNotReturned(t *testing.T) {
	f := newBookingFixture(storedBooking("b1", domain.StatusPending))
	f.notifier.err = errBoom
	if _, err := f.svc.AcceptRequest(context.Background(), "b1"); err != nil {
		t.Fatalf("notification failure leaked: %v", err)
	}
}

func TestBookingItemReturned(t *testing.T) {
	f := newBookingFixture(storedBooking("b1", domain.StatusOngoing), storedBooking("b2", domain.StatusApproved))

	res, err := f.svc.ItemReturned(context.Background(), "b1")
	if err != nil {
		t.Fatalf("ItemReturned returned error: %v", err)
	}
	if res.History.Status != domain.StatusTerminated || res.History.BookingID != "b1" || res.AvailableQuantity != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, ok := f.bookings.rows["b1"]; ok {
		t.Fatalf("booking should be deleted")
	}

	if _, err := f.svc.ItemReturned(context.Background(), "b2"); !domain.IsIllegalTransition(err) {
		t.Fatalf("expected illegal transition for approved booking, got %v", err)
	}
	if _, err := f.svc.ItemReturned(context.Background(), "missing"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	f.svc.Returns = &memArchiver{err: errBoom}
	if _, err := f.svc.ItemReturned(context.Background(), "b2"); !domain.IsInternal(err) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestBookingConfirmPayment(t *testing.T) {
	f := newBookingFixture(storedBooking("b1", domain.StatusPending))
	_ = f.ledger.Save(context.Background(), models.PaymentIntentRecord{IntentID: "pi_1", Status: "awaiting_payment_method"})

	res, err := f.svc.ConfirmPayment(context.Background(), "b1", "pi_1")
	if err != nil {
		t.Fatalf("ConfirmPayment returned error: %v", err)
	}
	if !res.Changed || res.Booking.Status != domain.StatusBooked {
		t.Fatalf("unexpected result: %+v", res)
	}
	stored := f.bookings.rows["b1"]
	if stored.PaymentIntentID != "pi_1" || stored.PaymentStatus != models.PaymentStatusPaid {
		t.Fatalf("payment not recorded: %+v", stored)
	}
	if f.ledger.rows["pi_1"].BookingID != "b1" {
		t.Fatalf("ledger not linked")
	}
}

func TestBookingConfirmPaymentRecordsEvenWhenTransitionIllegal(t *testing.T) {
	f := newBookingFixture(storedBooking("b1", domain.StatusCancelled))
	res, err := f.svc.ConfirmPayment(context.Background(), "b1", "pi_2")
	if err != nil {
		t.Fatalf("ConfirmPayment returned error: %v", err)
	}
	if res.Changed || res.Booking.Status != domain.StatusCancelled {
		t.Fatalf("status must stay cancelled: %+v", res)
	}
	if f.bookings.rows["b1"].PaymentStatus != models.PaymentStatusPaid {
		t.Fatalf("payment must still be recorded")
	}
}

func TestBookingConfirmPaymentVerification(t *testing.T) {
	f := newBookingFixture(storedBooking("b1", domain.StatusPending))
	f.svc.Verifier = stubVerifier{status: "awaiting_payment_method"}
	if _, err := f.svc.ConfirmPayment(context.Background(), "b1", "pi_3"); !domain.IsConflict(err) {
		t.Fatalf("expected conflict for unpaid intent, got %v", err)
	}
	if f.bookings.rows["b1"].PaymentStatus != "" {
		t.Fatalf("unpaid intent must not be recorded")
	}

	f.svc.Verifier = stubVerifier{err: errors.New("provider down")}
	if _, err := f.svc.ConfirmPayment(context.Background(), "b1", "pi_3"); err != nil {
		t.Fatalf("verifier outage should not block confirmation: %v", err)
	}
}

func TestBookingMarkReadAndListings(t *testing.T) {
	f := newBookingFixture(
		storedBooking("b1", domain.StatusPending),
		storedBooking("b2", domain.StatusCart),
		storedBooking("b3", domain.StatusOngoing),
	)
	ctx := context.Background()

	b, err := f.svc.MarkRead(ctx, "b1")
	if err != nil || !b.IsRead || b.ReadAt == nil {
		t.Fatalf("MarkRead = %+v, %v", b, err)
	}

	notes, _ := f.svc.Notifications(ctx, "cust-1")
	cart, _ := f.svc.Cart(ctx, "cust-1")
	booked, _ := f.svc.BookedItems(ctx, "cust-1")
	requests, _ := f.svc.Requests(ctx, "owner-1")
	if len(notes) != 2 || len(cart) != 1 || len(booked) != 1 || len(requests) != 2 {
		t.Fatalf("notes=%d cart=%d booked=%d requests=%d", len(notes), len(cart), len(booked), len(requests))
	}

	if _, err := f.svc.Notifications(ctx, " "); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBookingDelete(t *testing.T) {
	f := newBookingFixture(storedBooking("b1", domain.StatusCart))
	if err := f.svc.Delete(context.Background(), "b1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := f.svc.Delete(context.Background(), "b1"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
