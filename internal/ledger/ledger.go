package ledger

import (
	"errors"

	"tandyr-pos/pkg/models"
)

// MaxAmount is a sanity ceiling for a single payment entry, guarding
// against typos, not a business rule.
const MaxAmount = 10_000_000

var (
	ErrInvalidTarget     = errors.New("target total must be positive")
	ErrNotPositive       = errors.New("amount must be a positive whole number")
	ErrExceedsRemaining  = errors.New("amount exceeds the remaining balance")
	ErrExceedsCeiling    = errors.New("amount exceeds the maximum accepted value")
	ErrInvalidInstrument = errors.New("unknown payment instrument")
	ErrEmpty             = errors.New("no payment entries to remove")
)

type Entry struct {
	Instrument models.Instrument `json:"instrument"`
	Amount     int64             `json:"amount"`
}

// Ledger tracks split payments against a fixed order total. Entries keep
// insertion order; RemoveLast undoes the most recent one.
type Ledger struct {
	Target  int64   `json:"target"`
	Entries []Entry `json:"entries"`
}

func New(target int64) (*Ledger, error) {
	if target <= 0 {
		return nil, ErrInvalidTarget
	}
	return &Ledger{Target: target}, nil
}

func (l *Ledger) Paid() int64 {
	var sum int64
	for _, e := range l.Entries {
		sum += e.Amount
	}
	return sum
}

func (l *Ledger) Remaining() int64 {
	return l.Target - l.Paid()
}

func (l *Ledger) Complete() bool {
	return l.Remaining() == 0
}

// ValidateAmount checks a candidate payment amount against the remaining
// balance without mutating the ledger.
func ValidateAmount(amount, remaining int64) error {
	if amount <= 0 {
		return ErrNotPositive
	}
	if amount > MaxAmount {
		return ErrExceedsCeiling
	}
	if amount > remaining {
		return ErrExceedsRemaining
	}
	return nil
}

func (l *Ledger) Add(instrument models.Instrument, amount int64) error {
	if !instrument.Valid() {
		return ErrInvalidInstrument
	}
	if err := ValidateAmount(amount, l.Remaining()); err != nil {
		return err
	}
	l.Entries = append(l.Entries, Entry{Instrument: instrument, Amount: amount})
	return nil
}

func (l *Ledger) RemoveLast() (Entry, error) {
	if len(l.Entries) == 0 {
		return Entry{}, ErrEmpty
	}
	last := l.Entries[len(l.Entries)-1]
	l.Entries = l.Entries[:len(l.Entries)-1]
	return last, nil
}
