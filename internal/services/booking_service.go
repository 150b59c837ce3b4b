package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"rentalhub/internal/domain"
	"rentalhub/internal/domain/models"
	"rentalhub/internal/notify"
	"rentalhub/internal/pricing"
	"rentalhub/internal/repositories"
	"rentalhub/internal/utils"

	"github.com/google/uuid"
)

// BookingService owns the booking lifecycle: creation, edits while
// unsubmitted, state transitions, payment confirmation and return.
type BookingService struct {
	Bookings  BookingStore
	Histories HistoryStore
	Items     ItemStore
	Users     UserStore
	Returns   ReturnArchiver
	Ledger    PaymentLedger
	Verifier  IntentVerifier
	Notifier  notify.Notifier
	Location  *time.Location
	Now       func() time.Time
	NewID     func() string
	RequestID string
}

type CreateInput struct {
	ItemID         string
	CustomerID     string
	Customer       models.CustomerSnapshot
	RentalPeriod   string
	PickUpDate     time.Time
	ReturnDate     time.Time
	DurationHint   int
	PaymentMethod  string
	DeliveryCharge *float64
	Guarantors     [2]models.Guarantor
	AsCart         bool
}

type CreateResult struct {
	BookingID   string        `json:"bookingId"`
	RentalDays  int           `json:"rentalDays"`
	TotalAmount float64       `json:"totalAmount"`
	PricePerDay float64       `json:"pricePerDay"`
	GrandTotal  float64       `json:"grandTotal"`
	Status      domain.Status `json:"status"`
	Quote       pricing.Quote `json:"quote"`
}

// TransitionResult reports the booking after an event. Changed is false
// when the event was a re-application of the current status.
type TransitionResult struct {
	Booking models.Booking `json:"booking"`
	Changed bool           `json:"changed"`
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return utils.NowUTC()
}

func (s BookingService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s BookingService) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	if strings.TrimSpace(in.ItemID) == "" {
		return CreateResult{}, domain.ValidationError{Field: "itemId", Msg: "is required"}
	}
	if strings.TrimSpace(in.CustomerID) == "" {
		return CreateResult{}, domain.ValidationError{Field: "customerId", Msg: "is required"}
	}

	item, err := s.Items.GetByID(ctx, in.ItemID)
	if err != nil {
		return CreateResult{}, storeErr("item", err)
	}

	customer, err := s.customerSnapshot(ctx, in)
	if err != nil {
		return CreateResult{}, err
	}
	if !in.AsCart {
		if err := validateGuarantors(in.Guarantors); err != nil {
			return CreateResult{}, err
		}
	}

	snap := item.Snapshot()
	quote, fin, err := s.price(in, snap.PricePerDay)
	if err != nil {
		return CreateResult{}, err
	}

	now := s.now()
	status := domain.StatusPending
	if in.AsCart {
		status = domain.StatusCart
	}
	b := models.Booking{
		ID:         s.newID(),
		ItemID:     item.ID,
		CustomerID: in.CustomerID,
		OwnerID:    item.OwnerID,
		Item:       snap,
		Customer:   customer,
		Terms: models.RentalTerms{
			RentalPeriod:  string(quote.Period),
			PickUpDate:    in.PickUpDate,
			ReturnDate:    in.ReturnDate,
			PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		},
		Financials: fin,
		Guarantors: in.Guarantors,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	// The selected period is kept even when a same-day rental is billed hourly.
	if p, err := pricing.ParsePeriod(in.RentalPeriod); err == nil {
		b.Terms.RentalPeriod = string(p)
	}

	if err := s.Bookings.Create(ctx, b); err != nil {
		return CreateResult{}, domain.InternalError{Msg: "failed to save booking", Err: err}
	}
	utils.LogEvent(s.RequestID, "booking", "create", fmt.Sprintf("booking_id=%s item_id=%s status=%s grand_total=%.2f", b.ID, b.ItemID, b.Status, fin.GrandTotal))

	if status == domain.StatusPending {
		s.notifyCustomer(ctx, notify.KindRequestSent, b)
		s.notifyOwner(ctx, notify.KindNewRequest, b)
	}

	return CreateResult{
		BookingID:   b.ID,
		RentalDays:  pricing.RentalDays(in.PickUpDate, in.ReturnDate),
		TotalAmount: fin.Amount,
		PricePerDay: snap.PricePerDay,
		GrandTotal:  fin.GrandTotal,
		Status:      b.Status,
		Quote:       quote,
	}, nil
}

// Update replaces the submission payload of a booking that is still in the
// cart or pending. The status is left as it was.
func (s BookingService) Update(ctx context.Context, id string, in CreateInput) (models.Booking, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return models.Booking{}, err
	}
	if b.Status != domain.StatusCart && b.Status != domain.StatusPending {
		return models.Booking{}, domain.ConflictError{Resource: "booking", Msg: fmt.Sprintf("cannot edit a booking that is %s", b.Status)}
	}
	if b.Status == domain.StatusPending {
		if err := validateGuarantors(in.Guarantors); err != nil {
			return models.Booking{}, err
		}
	}

	_, fin, err := s.price(in, b.Item.PricePerDay)
	if err != nil {
		return models.Booking{}, err
	}
	if in.Customer.Name != "" {
		b.Customer = in.Customer
	}
	if p, err := pricing.ParsePeriod(in.RentalPeriod); err == nil {
		b.Terms.RentalPeriod = string(p)
	}
	b.Terms.PickUpDate = in.PickUpDate
	b.Terms.ReturnDate = in.ReturnDate
	if m := strings.TrimSpace(in.PaymentMethod); m != "" {
		b.Terms.PaymentMethod = m
	}
	b.Financials = fin
	b.Guarantors = in.Guarantors
	b.UpdatedAt = s.now()

	if err := s.Bookings.Update(ctx, b, b.Status); err != nil {
		return models.Booking{}, s.persistErr(err)
	}
	utils.LogEvent(s.RequestID, "booking", "update", fmt.Sprintf("booking_id=%s grand_total=%.2f", b.ID, fin.GrandTotal))
	return b, nil
}

func (s BookingService) Submit(ctx context.Context, id string) (TransitionResult, error) {
	res, err := s.transition(ctx, id, domain.EventSubmit)
	if err == nil && res.Changed {
		s.notifyCustomer(ctx, notify.KindRequestSent, res.Booking)
		s.notifyOwner(ctx, notify.KindNewRequest, res.Booking)
	}
	return res, err
}

func (s BookingService) AcceptRequest(ctx context.Context, id string) (TransitionResult, error) {
	return s.transitionAndNotify(ctx, id, domain.EventAcceptRequest, notify.KindAccepted)
}

// Approve also recomputes the grand total from the stored terms before
// sending the customer the next steps.
func (s BookingService) Approve(ctx context.Context, id string) (TransitionResult, error) {
	res, err := s.transition(ctx, id, domain.EventApprove)
	if err != nil || !res.Changed {
		return res, err
	}
	b := res.Booking
	if fin, err := s.recompute(b); err != nil {
		utils.LogError(s.RequestID, "booking", "approve_recompute", err)
	} else if err := s.Bookings.UpdateFinancials(ctx, b.ID, fin); err != nil {
		utils.LogError(s.RequestID, "booking", "approve_recompute", err)
	} else {
		res.Booking.Financials = fin
	}
	s.notifyCustomer(ctx, notify.KindApproved, res.Booking)
	return res, nil
}

func (s BookingService) Reject(ctx context.Context, id string) (TransitionResult, error) {
	return s.transitionAndNotify(ctx, id, domain.EventReject, notify.KindRejected)
}

func (s BookingService) RejectBooking(ctx context.Context, id string) (TransitionResult, error) {
	return s.transitionAndNotify(ctx, id, domain.EventRejectBooking, notify.KindRejectedBooking)
}

func (s BookingService) Cancel(ctx context.Context, id string) (TransitionResult, error) {
	res, err := s.transitionAndNotify(ctx, id, domain.EventCancel, notify.KindCancelled)
	if err == nil && res.Changed {
		s.notifyOwner(ctx, notify.KindCancelled, res.Booking)
	}
	return res, err
}

func (s BookingService) Start(ctx context.Context, id string) (TransitionResult, error) {
	return s.transitionAndNotify(ctx, id, domain.EventStart, notify.KindStarted)
}

// Terminate ends the rental but keeps the booking row, unlike ItemReturned.
func (s BookingService) Terminate(ctx context.Context, id string) (TransitionResult, error) {
	return s.transitionAndNotify(ctx, id, domain.EventTerminate, notify.KindTerminated)
}

// ItemReturned archives an ongoing booking into history, restores one unit
// of inventory and deletes the booking.
func (s BookingService) ItemReturned(ctx context.Context, bookingID string) (repositories.ReturnResult, error) {
	if strings.TrimSpace(bookingID) == "" {
		return repositories.ReturnResult{}, domain.ValidationError{Field: "bookingId", Msg: "is required"}
	}
	if s.Returns == nil {
		return repositories.ReturnResult{}, domain.InternalError{Msg: "returns are not configured"}
	}
	res, err := s.Returns.Archive(ctx, bookingID, s.newID(), s.now())
	if err != nil {
		switch {
		case domain.IsIllegalTransition(err):
			return repositories.ReturnResult{}, err
		case errors.Is(err, sql.ErrNoRows):
			return repositories.ReturnResult{}, domain.NotFoundError{Resource: "booking", Err: err}
		default:
			return repositories.ReturnResult{}, domain.InternalError{Msg: "failed to settle return", Err: err}
		}
	}
	utils.LogEvent(s.RequestID, "booking", "item_returned", fmt.Sprintf("booking_id=%s history_id=%s available=%d", bookingID, res.History.ID, res.AvailableQuantity))
	s.notifyCustomer(ctx, notify.KindReturned, res.History.Booking)
	return res, nil
}

// ConfirmPayment records a settled provider payment on the booking. The
// payment is stored whatever the booking's status, since the money has
// already moved; the booking only advances to booked when that is a legal
// move from its current status.
func (s BookingService) ConfirmPayment(ctx context.Context, id, intentID string) (TransitionResult, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return TransitionResult{}, domain.ValidationError{Field: "paymentIntentId", Msg: "is required"}
	}
	b, err := s.Get(ctx, id)
	if err != nil {
		return TransitionResult{}, err
	}

	if s.Verifier != nil {
		status, err := s.Verifier.IntentStatus(ctx, intentID)
		switch {
		case err != nil:
			utils.LogEvent(s.RequestID, "payment", "confirm_verify_skipped", fmt.Sprintf("intent_id=%s err=%v", intentID, err))
		case status != models.PaymentStatusSucceeded:
			return TransitionResult{}, domain.ConflictError{Resource: "payment", Msg: fmt.Sprintf("intent %s is %s", intentID, status)}
		}
	}

	if err := s.Bookings.RecordPayment(ctx, b.ID, intentID, models.PaymentStatusPaid); err != nil {
		return TransitionResult{}, s.persistErr(err)
	}
	b.PaymentIntentID = intentID
	b.PaymentStatus = models.PaymentStatusPaid
	if s.Ledger != nil {
		if err := s.Ledger.LinkBooking(ctx, intentID, b.ID); err != nil {
			utils.LogError(s.RequestID, "payment", "ledger_link", err)
		}
	}

	res := TransitionResult{Booking: b}
	if domain.CanTransition(b.Status, domain.EventPaymentConfirmed) {
		next := domain.Target(domain.EventPaymentConfirmed)
		if err := s.Bookings.UpdateStatus(ctx, b.ID, b.Status, next); err != nil {
			utils.LogEvent(s.RequestID, "payment", "confirm_status_skipped", fmt.Sprintf("booking_id=%s err=%v", b.ID, err))
		} else {
			res.Booking.Status = next
			res.Changed = true
		}
	}
	utils.LogEvent(s.RequestID, "payment", "confirm", fmt.Sprintf("booking_id=%s intent_id=%s status=%s", b.ID, intentID, res.Booking.Status))

	s.notifyCustomer(ctx, notify.KindPaymentReceived, res.Booking)
	s.notifyOwner(ctx, notify.KindPaymentReceived, res.Booking)
	return res, nil
}

func (s BookingService) MarkRead(ctx context.Context, id string) (models.Booking, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return models.Booking{}, err
	}
	if b.IsRead {
		return b, nil
	}
	at := s.now()
	if err := s.Bookings.MarkRead(ctx, id, at); err != nil {
		return models.Booking{}, s.persistErr(err)
	}
	b.IsRead = true
	b.ReadAt = &at
	return b, nil
}

func (s BookingService) Get(ctx context.Context, id string) (models.Booking, error) {
	if strings.TrimSpace(id) == "" {
		return models.Booking{}, domain.ValidationError{Field: "id", Msg: "is required"}
	}
	b, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return models.Booking{}, storeErr("booking", err)
	}
	return b, nil
}

// Delete removes a booking outright without archiving it.
func (s BookingService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.Bookings.Delete(ctx, id); err != nil {
		return storeErr("booking", err)
	}
	utils.LogEvent(s.RequestID, "booking", "delete", "booking_id="+id)
	return nil
}

func (s BookingService) Notifications(ctx context.Context, customerID string) ([]models.Booking, error) {
	return s.list(ctx, customerID, s.Bookings.ListByCustomer)
}

func (s BookingService) BookedItems(ctx context.Context, customerID string) ([]models.Booking, error) {
	return s.list(ctx, customerID, s.Bookings.ListActiveByCustomer)
}

func (s BookingService) Requests(ctx context.Context, ownerID string) ([]models.Booking, error) {
	return s.list(ctx, ownerID, s.Bookings.ListByOwner)
}

func (s BookingService) Cart(ctx context.Context, customerID string) ([]models.Booking, error) {
	return s.list(ctx, customerID, s.Bookings.ListCart)
}

func (s BookingService) CustomerHistory(ctx context.Context, customerID string) ([]models.History, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, domain.ValidationError{Field: "customerId", Msg: "is required"}
	}
	out, err := s.Histories.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to load history", Err: err}
	}
	return out, nil
}

func (s BookingService) OwnerHistory(ctx context.Context, ownerID string) ([]models.History, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.ValidationError{Field: "ownerId", Msg: "is required"}
	}
	out, err := s.Histories.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to load history", Err: err}
	}
	return out, nil
}

func (s BookingService) list(ctx context.Context, id string, fn func(context.Context, string) ([]models.Booking, error)) ([]models.Booking, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ValidationError{Field: "id", Msg: "is required"}
	}
	out, err := fn(ctx, id)
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to load bookings", Err: err}
	}
	return out, nil
}

func (s BookingService) transitionAndNotify(ctx context.Context, id string, ev domain.Event, kind notify.Kind) (TransitionResult, error) {
	res, err := s.transition(ctx, id, ev)
	if err == nil && res.Changed {
		s.notifyCustomer(ctx, kind, res.Booking)
	}
	return res, err
}

// transition applies ev with a compare-and-set on the current status.
func (s BookingService) transition(ctx context.Context, id string, ev domain.Event) (TransitionResult, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return TransitionResult{}, err
	}
	next, err := domain.Transition(b.Status, ev)
	if err != nil {
		return TransitionResult{}, err
	}
	if next == b.Status {
		return TransitionResult{Booking: b}, nil
	}
	if err := s.Bookings.UpdateStatus(ctx, b.ID, b.Status, next); err != nil {
		return TransitionResult{}, s.persistErr(err)
	}
	utils.LogEvent(s.RequestID, "booking", string(ev), fmt.Sprintf("booking_id=%s from=%s to=%s", b.ID, b.Status, next))
	b.Status = next
	b.UpdatedAt = s.now()
	return TransitionResult{Booking: b, Changed: true}, nil
}

func (s BookingService) price(in CreateInput, pricePerDay float64) (pricing.Quote, models.Financials, error) {
	period, err := pricing.ParsePeriod(in.RentalPeriod)
	if err != nil {
		return pricing.Quote{}, models.Financials{}, domain.ValidationError{Field: "rentalPeriod", Msg: "must be Hour, Day or Week", Err: err}
	}
	quote, err := pricing.Compute(pricing.Request{
		Period:          period,
		PickupDate:      s.inLocation(in.PickUpDate),
		ReturnDate:      s.inLocation(in.ReturnDate),
		DurationHint:    in.DurationHint,
		BasePricePerDay: pricePerDay,
	})
	if err != nil {
		return pricing.Quote{}, models.Financials{}, domain.ValidationError{Field: "returnDate", Msg: err.Error(), Err: err}
	}
	fee := models.DefaultDeliveryCharge
	if in.DeliveryCharge != nil {
		if *in.DeliveryCharge < 0 {
			return pricing.Quote{}, models.Financials{}, domain.ValidationError{Field: "deliveryCharge", Msg: "must not be negative"}
		}
		fee = *in.DeliveryCharge
	}
	totals := pricing.Total(quote, fee)
	days := pricing.RentalDays(in.PickUpDate, in.ReturnDate)
	return quote, models.Financials{
		Amount:         utils.Round2(float64(days) * pricePerDay),
		RentalDuration: quote.Duration,
		RatePerPeriod:  quote.RoundedRate(),
		DeliveryCharge: totals.DeliveryFee,
		GrandTotal:     totals.GrandTotal,
	}, nil
}

func (s BookingService) recompute(b models.Booking) (models.Financials, error) {
	fee := b.Financials.DeliveryCharge
	_, fin, err := s.price(CreateInput{
		RentalPeriod:   b.Terms.RentalPeriod,
		PickUpDate:     b.Terms.PickUpDate,
		ReturnDate:     b.Terms.ReturnDate,
		DurationHint:   b.Financials.RentalDuration,
		DeliveryCharge: &fee,
	}, b.Item.PricePerDay)
	return fin, err
}

// inLocation moves timestamps into the marketplace zone so that "same
// calendar day" is judged locally.
func (s BookingService) inLocation(t time.Time) time.Time {
	if t.IsZero() || s.Location == nil {
		return t
	}
	return t.In(s.Location)
}

func (s BookingService) customerSnapshot(ctx context.Context, in CreateInput) (models.CustomerSnapshot, error) {
	if strings.TrimSpace(in.Customer.Name) != "" {
		return in.Customer, nil
	}
	if s.Users == nil {
		return models.CustomerSnapshot{}, domain.ValidationError{Field: "customer", Msg: "customer details are required"}
	}
	u, err := s.Users.GetByID(ctx, in.CustomerID)
	if err != nil {
		return models.CustomerSnapshot{}, storeErr("customer", err)
	}
	return u.Snapshot(), nil
}

func validateGuarantors(gs [2]models.Guarantor) error {
	for i, g := range gs {
		if !g.Complete() {
			return domain.ValidationError{Field: fmt.Sprintf("guarantors[%d]", i), Msg: "full name, phone, address and email are required"}
		}
	}
	return nil
}

func (s BookingService) persistErr(err error) error {
	switch {
	case errors.Is(err, repositories.ErrStatusChanged):
		return domain.ConflictError{Resource: "booking", Msg: "status changed by another request, reload and retry", Err: err}
	case errors.Is(err, sql.ErrNoRows):
		return domain.NotFoundError{Resource: "booking", Err: err}
	default:
		return domain.InternalError{Msg: "failed to save booking", Err: err}
	}
}

func storeErr(resource string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError{Resource: resource, Err: err}
	}
	return domain.InternalError{Msg: "failed to load " + resource, Err: err}
}

func (s BookingService) notifyCustomer(ctx context.Context, kind notify.Kind, b models.Booking) {
	to := notify.Recipient{Name: b.Customer.Name, Email: b.Customer.Email}
	if u, ok := s.lookupUser(ctx, b.CustomerID); ok {
		to.PushToken = u.PushToken
		to.Email = utils.FirstNonEmpty(to.Email, u.Email)
	}
	s.send(ctx, kind, b, to)
}

func (s BookingService) notifyOwner(ctx context.Context, kind notify.Kind, b models.Booking) {
	u, ok := s.lookupUser(ctx, b.OwnerID)
	if !ok {
		utils.LogEvent(s.RequestID, "notify", string(kind), "owner contact unavailable owner_id="+b.OwnerID)
		return
	}
	s.send(ctx, kind, b, notify.Recipient{Name: u.Name, Email: u.Email, PushToken: u.PushToken})
}

func (s BookingService) lookupUser(ctx context.Context, id string) (models.User, bool) {
	if s.Users == nil || id == "" {
		return models.User{}, false
	}
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return models.User{}, false
	}
	return u, true
}

// send never fails the caller.
func (s BookingService) send(ctx context.Context, kind notify.Kind, b models.Booking, to notify.Recipient) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, notify.Compose(kind, b, to)); err != nil {
		utils.LogError(s.RequestID, "notify", string(kind), fmt.Errorf("booking_id=%s: %w", b.ID, err))
	}
}
