package models

// Item is the catalog entry a booking is made against. The catalog itself
// is maintained elsewhere; bookings only read it and restore inventory.
type Item struct {
	ID                string  `json:"id"`
	OwnerID           string  `json:"ownerId"`
	Product           string  `json:"product"`
	Category          string  `json:"category"`
	Location          string  `json:"location"`
	PricePerDay       float64 `json:"pricePerDay"`
	ItemImage         string  `json:"itemImage"`
	Quantity          int     `json:"quantity"`
	AvailableQuantity int     `json:"availableQuantity"`
}

// Snapshot copies the fields a booking keeps from the item.
func (i Item) Snapshot() ItemSnapshot {
	return ItemSnapshot{
		Product:     i.Product,
		Category:    i.Category,
		Location:    i.Location,
		PricePerDay: i.PricePerDay,
		ItemImage:   i.ItemImage,
	}
}
