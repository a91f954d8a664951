package dialogue

import (
	"time"

	"tandyr-pos/internal/cart"
	"tandyr-pos/internal/ledger"
	"tandyr-pos/internal/validation"
	"tandyr-pos/pkg/models"
)

// Step is the current position in the order-entry dialogue. Each step
// accepts exactly the inputs it names; everything else re-prompts.
type Step int

const (
	StepClientName Step = iota
	StepClientPhone
	StepClientBirthday
	StepCategorySelect
	StepProductName
	StepSideSelect
	StepProductPrice
	StepOrderSummary
	StepPaymentType
	StepPaymentAmount
	StepPaymentSummary
	StepFinalConfirm
	StepConfirmCancel
)

func (s Step) String() string {
	switch s {
	case StepClientName:
		return "client_name"
	case StepClientPhone:
		return "client_phone"
	case StepClientBirthday:
		return "client_birthday"
	case StepCategorySelect:
		return "category_select"
	case StepProductName:
		return "product_name"
	case StepSideSelect:
		return "side_select"
	case StepProductPrice:
		return "product_price"
	case StepOrderSummary:
		return "order_summary"
	case StepPaymentType:
		return "payment_type"
	case StepPaymentAmount:
		return "payment_amount"
	case StepPaymentSummary:
		return "payment_summary"
	case StepFinalConfirm:
		return "final_confirm"
	case StepConfirmCancel:
		return "confirm_cancel"
	}
	return "unknown"
}

// Session is the mutable state of one conversation's in-flight order. It
// is owned exclusively by that conversation and discarded on completion,
// cancellation or expiry; a crash loses the draft.
type Session struct {
	ChatID int64                 `json:"chat_id"`
	Step   Step                  `json:"step"`
	Client validation.ClientInfo `json:"client"`
	Cart   *cart.Cart            `json:"cart"`
	Ledger *ledger.Ledger        `json:"ledger,omitempty"`

	// Partial item/payment selection, discarded on "back".
	PendingCategoryID int64             `json:"pending_category_id,omitempty"`
	PendingCategory   string            `json:"pending_category,omitempty"`
	PendingProduct    string            `json:"pending_product,omitempty"`
	PendingInstrument models.Instrument `json:"pending_instrument,omitempty"`

	// ReturnStep is where a declined cancel confirmation goes back to.
	ReturnStep Step `json:"return_step,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewSession(chatID int64) *Session {
	return &Session{
		ChatID:    chatID,
		Step:      StepClientName,
		Cart:      cart.New(),
		UpdatedAt: time.Now(),
	}
}

// resetPending drops the in-progress partial item only; the accumulated
// cart and payments survive.
func (s *Session) resetPending() {
	s.PendingCategoryID = 0
	s.PendingCategory = ""
	s.PendingProduct = ""
}

func (s *Session) hasPayments() bool {
	return s.Ledger != nil && len(s.Ledger.Entries) > 0
}

func (s *Session) Touch() {
	s.UpdatedAt = time.Now()
}
