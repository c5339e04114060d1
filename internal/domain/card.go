package domain

import "time"

// Card represents a uniquely numbered physical trading card. Every card is
// stocked in quantity exactly one, so availability is a boolean rather than a
// counter. Through the fulfillment pipeline the flag only ever transitions
// true→false; reverting a sale is a manual administrative action outside this
// service.
type Card struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Price     int64       `json:"price"` // minor currency units (pence)
	Available bool        `json:"available"`
	Images    []CardImage `json:"images"`
	CreatedAt time.Time   `json:"created_at"`
}

// CardImage is a reference to an externally hosted card scan. The ordered
// list is written once at card intake and never mutated by this service.
type CardImage struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id,omitempty"`
	Position int    `json:"position"`
}

// PrimaryImageURL returns the URL of the first image, or "" if the card has
// no images.
func (c *Card) PrimaryImageURL() string {
	if len(c.Images) == 0 {
		return ""
	}
	return c.Images[0].URL
}
