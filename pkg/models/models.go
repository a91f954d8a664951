package models

import (
	"strconv"
	"time"
)

// Instrument is a payment instrument accepted at the counter.
type Instrument string

const (
	InstrumentCash     Instrument = "CASH"
	InstrumentCard     Instrument = "CARD"
	InstrumentTransfer Instrument = "TRANSFER"
)

func (i Instrument) Valid() bool {
	switch i {
	case InstrumentCash, InstrumentCard, InstrumentTransfer:
		return true
	}
	return false
}

// CustomCategory is the reserved category name for ad-hoc items entered by
// name and price instead of being picked from the catalog.
const CustomCategory = "Custom"

// CustomSide marks the side slot of an ad-hoc line item.
const CustomSide = "custom"

type Order struct {
	ID             int64      `json:"id"`
	Number         string     `json:"order_number"`
	ClientName     string     `json:"client_name"`
	ClientPhone    string     `json:"client_phone,omitempty"`
	ClientBirthday *time.Time `json:"client_birthday,omitempty"`
	BranchID       int64      `json:"branch_id"`
	CashierID      int64      `json:"cashier_id"`
	TotalAmount    int64      `json:"total_amount"`
	CreatedAt      time.Time  `json:"created_at"`
	Items          []LineItem `json:"items"`
	Payments       []Payment  `json:"payments"`
}

type LineItem struct {
	ID          int64  `json:"id,omitempty"`
	OrderID     int64  `json:"order_id,omitempty"`
	ProductName string `json:"product_name"`
	Category    string `json:"category"`
	SideName    string `json:"side_name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
}

type Payment struct {
	ID         int64      `json:"id,omitempty"`
	OrderID    int64      `json:"order_id,omitempty"`
	Instrument Instrument `json:"instrument"`
	Amount     int64      `json:"amount"`
}

type Branch struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID       int64  `json:"id"`
	ChatID   int64  `json:"chat_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	BranchID *int64 `json:"branch_id,omitempty"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Side fully determines the price of a catalog line item; there is no
// separate base price on the product.
type Side struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
}

type Setting struct {
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FormatAmount renders an integer currency amount with thousand separators,
// e.g. 25000 -> "25 000".
func FormatAmount(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
