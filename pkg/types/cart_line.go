package types

// CartLine is one product entry in a cart: the product id, the quantity, and
// the display snapshot copied from the catalog at add time. The snapshot is
// deliberately not a live reference; prices and names are frozen when the
// line is created.
//
// The firestore tags mirror the document layout used by the storefront
// (`carts/{uid}` with an `items` array).
type CartLine struct {
	ProductID      string `json:"product_id" firestore:"id"`
	Name           string `json:"name" firestore:"name"`
	UnitPriceCents int64  `json:"unit_price_cents" firestore:"price"`
	ImageURL       string `json:"image_url,omitempty" firestore:"image,omitempty"`
	Condition      string `json:"condition,omitempty" firestore:"condition,omitempty"`
	Quantity       int    `json:"quantity" firestore:"quantity"`
}

// CartLines is the ordered collection persisted as a whole on every write.
type CartLines []CartLine

// SubtotalCents returns unit price times quantity for a single line.
func (l CartLine) SubtotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

// TotalCents derives the cart total. It is never stored.
func (ls CartLines) TotalCents() int64 {
	var total int64
	for _, l := range ls {
		total += l.SubtotalCents()
	}
	return total
}

// Clone returns a deep copy so callers can hand out read-only snapshots.
func (ls CartLines) Clone() CartLines {
	if ls == nil {
		return nil
	}
	out := make(CartLines, len(ls))
	copy(out, ls)
	return out
}
