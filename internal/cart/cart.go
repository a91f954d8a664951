package cart

import (
	"errors"

	"tandyr-pos/pkg/models"
)

var (
	ErrEmptyName       = errors.New("product name must not be empty")
	ErrNegativePrice   = errors.New("unit price must not be negative")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Cart accumulates the line items of one in-flight order. Items are only
// ever appended; the dialogue discards the whole cart on reset.
type Cart struct {
	Items []models.LineItem `json:"items"`
}

func New() *Cart {
	return &Cart{}
}

func (c *Cart) Add(item models.LineItem) error {
	if item.ProductName == "" {
		return ErrEmptyName
	}
	if item.UnitPrice < 0 {
		return ErrNegativePrice
	}
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}
	c.Items = append(c.Items, item)
	return nil
}

func (c *Cart) Total() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}

func (c *Cart) Len() int {
	return len(c.Items)
}
