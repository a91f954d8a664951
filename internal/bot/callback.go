package bot

import (
	"strconv"
	"strings"
)

// Callback payload prefixes used by the order dialogue.
const (
	CbCategory   = "cat:"  // cat:<id> or cat:custom
	CbSide       = "side:" // side:<id>
	CbPayType    = "pay:"  // pay:CASH | pay:CARD | pay:TRANSFER
	CbSkip       = "skip"
	CbBack       = "back:cat"
	CbSummaryAdd = "sum:add"
	CbSummaryPay = "sum:pay"
	CbPayAll     = "pays:all"
	CbPayUndo    = "pays:undo"
	CbPayNext    = "pays:next"
	CbConfirm    = "confirm:yes"
	CbCancel     = "cancel"
	CbCancelYes  = "cancel:yes"
	CbCancelNo   = "cancel:no"
	CbRetry      = "commit:retry"

	CustomValue = "custom"
)

// ParseID extracts the numeric suffix of a prefixed callback payload.
func ParseID(data, prefix string) (int64, bool) {
	rest, ok := strings.CutPrefix(data, prefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ParseValue extracts the string suffix of a prefixed callback payload.
func ParseValue(data, prefix string) (string, bool) {
	return strings.CutPrefix(data, prefix)
}
