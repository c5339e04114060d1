package domain

import "time"

// Cart holds a shopper's intended purchase set. It is purely advisory: no
// reservation is taken server-side, and entries can lose the fulfillment race
// to another shopper at any time. The cart is keyed by a client-generated
// key and persisted so it survives page reloads.
type Cart struct {
	Key       string     `json:"key"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is a single intended purchase. Because every card is unique,
// quantity is pinned to 1; the field exists so total computation stays
// generically correct.
type CartItem struct {
	CardID   string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	ImageURL string `json:"imageUrl,omitempty"`
	Quantity int    `json:"quantity"`
}

// AddItem appends the item with quantity 1. Adding a card id that is already
// present is a no-op, so repeated adds can never inflate the quantity of a
// unique item. Returns true if the item was added.
func (c *Cart) AddItem(item CartItem) bool {
	if c.FindItemIndex(item.CardID) != -1 {
		return false
	}
	item.Quantity = 1
	c.Items = append(c.Items, item)
	return true
}

// RemoveItem deletes the entry for the given card id, preserving the order of
// the remaining items. Returns true if an entry was removed.
func (c *Cart) RemoveItem(cardID string) bool {
	idx := c.FindItemIndex(cardID)
	if idx == -1 {
		return false
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	return true
}

// SetQuantity clamps the requested quantity to {0,1}: cards are unique, so
// any quantity above 1 is pinned back to 1 and 0 removes the entry.
func (c *Cart) SetQuantity(cardID string, quantity int) bool {
	if quantity <= 0 {
		return c.RemoveItem(cardID)
	}
	idx := c.FindItemIndex(cardID)
	if idx == -1 {
		return false
	}
	c.Items[idx].Quantity = 1
	return true
}

// Clear removes all items.
func (c *Cart) Clear() {
	c.Items = nil
}

// TotalAmount sums price×quantity over all items, in minor currency units.
func (c *Cart) TotalAmount() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

// CardIDs returns the card ids in cart order.
func (c *Cart) CardIDs() []string {
	ids := make([]string, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.CardID
	}
	return ids
}

// FindItemIndex returns the index of the item with the given card id, or -1.
func (c *Cart) FindItemIndex(cardID string) int {
	for i := range c.Items {
		if c.Items[i].CardID == cardID {
			return i
		}
	}
	return -1
}
