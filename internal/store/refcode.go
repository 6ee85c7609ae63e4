package store

import (
	"fmt"

	hashids "github.com/speps/go-hashids/v2"
)

// listingCoder derives the short reference code printed on listings
// (e.g. "RG-K9M2XQ7D") from the property's database id. Codes are stable
// across restarts and carry no information worth hiding; the salt only
// keeps them from being trivially sequential.
type listingCoder struct {
	h *hashids.HashID
}

func newListingCoder() *listingCoder {
	hd := hashids.NewData()
	hd.Salt = "estates-listings"
	hd.MinLength = 8
	hd.Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	h, err := hashids.NewWithData(hd)
	if err != nil {
		// Only possible with a malformed alphabet constant.
		panic(fmt.Sprintf("listing coder: %v", err))
	}
	return &listingCoder{h: h}
}

func (c *listingCoder) Code(id int64) (string, error) {
	code, err := c.h.EncodeInt64([]int64{id})
	if err != nil {
		return "", fmt.Errorf("encode listing code: %w", err)
	}
	return "RG-" + code, nil
}
