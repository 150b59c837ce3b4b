package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	intconfig "rentalhub/internal/config"
	intdb "rentalhub/internal/db"
	"rentalhub/internal/domain"
	"rentalhub/internal/domain/models"
)

// ReturnRepository settles a returned item: the booking is archived into
// histories, one unit goes back to inventory and the booking row is removed,
// all in one transaction.
type ReturnRepository struct {
	DB *sql.DB
}

func (r ReturnRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// ReturnResult is what a settled return produced.
type ReturnResult struct {
	History           models.History `json:"history"`
	AvailableQuantity int            `json:"availableQuantity"`
}

// Archive settles bookingID. The booking must currently be ongoing;
// otherwise an *domain.IllegalTransitionError is returned and nothing
// changes.
func (r ReturnRepository) Archive(ctx context.Context, bookingID, historyID string, at time.Time) (ReturnResult, error) {
	var out ReturnResult
	err := intdb.WithTx(ctx, r.db(), func(tx *sql.Tx) error {
		bookings := BookingRepository{Tx: tx}
		b, err := bookings.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if _, err := domain.Transition(b.Status, domain.EventReturn); err != nil {
			return err
		}

		h := models.NewHistory(historyID, b, at)
		if err := (HistoryRepository{Tx: tx}).Insert(ctx, h); err != nil {
			return err
		}
		available, err := ItemRepository{Tx: tx}.IncrementAvailable(ctx, b.ItemID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("item %s missing for booking %s", b.ItemID, b.ID)
		}
		if err != nil {
			return err
		}
		if err := bookings.Delete(ctx, b.ID); err != nil {
			return err
		}
		out = ReturnResult{History: h, AvailableQuantity: available}
		return nil
	})
	if err != nil {
		return ReturnResult{}, err
	}
	return out, nil
}
