package dialogue

import (
	"context"
	"errors"
	"fmt"

	"tandyr-pos/internal/bot"
	"tandyr-pos/internal/catalog"
	"tandyr-pos/internal/ledger"
	"tandyr-pos/internal/order"
	"tandyr-pos/internal/validation"
	"tandyr-pos/pkg/logger"
	"tandyr-pos/pkg/models"

	"github.com/google/uuid"
)

// Committer persists a completed draft atomically.
type Committer interface {
	Commit(ctx context.Context, requestID string, draft order.Draft) (models.Order, error)
}

// Notifier hands the committed order to the side-effect pipeline. Its
// error never reaches the cashier.
type Notifier interface {
	OrderCreated(ctx context.Context, requestID string, order models.Order) error
}

// Machine drives the order-entry dialogue. One Handle call processes one
// inbound update to completion; the transport guarantees per-chat ordering,
// so a session is never touched concurrently.
type Machine struct {
	catalog   catalog.Lookup
	committer Committer
	notifier  Notifier
	transport bot.Transport
	logger    *logger.Logger
}

func NewMachine(lookup catalog.Lookup, committer Committer, notifier Notifier, transport bot.Transport, log *logger.Logger) *Machine {
	return &Machine{
		catalog:   lookup,
		committer: committer,
		notifier:  notifier,
		transport: transport,
		logger:    log,
	}
}

// Start opens a fresh dialogue by prompting for the client name.
func (m *Machine) Start(ctx context.Context, s *Session) error {
	return m.send(ctx, s, msgAskClientName, bot.Keyboard{bot.Row(cancelButton())})
}

// Handle processes one update against the session. It returns true when
// the session is finished (committed or cancelled) and should be discarded.
func (m *Machine) Handle(ctx context.Context, s *Session, upd bot.Update) (bool, error) {
	requestID := uuid.NewString()
	s.Touch()

	done, err := m.step(ctx, s, upd, requestID)
	if err != nil && !done {
		// The cashier always gets a reply; input is never dropped silently.
		if sendErr := m.send(ctx, s, msgInternalError, nil); sendErr != nil {
			m.logger.Error(requestID, "error_reply_failed", "Failed to send error reply", sendErr)
		}
	}
	return done, err
}

func (m *Machine) step(ctx context.Context, s *Session, upd bot.Update, requestID string) (bool, error) {
	if upd.Callback == bot.CbCancel {
		return m.handleCancelRequest(ctx, s)
	}

	switch s.Step {
	case StepClientName:
		return false, m.handleClientName(ctx, s, upd)
	case StepClientPhone:
		return false, m.handleClientPhone(ctx, s, upd)
	case StepClientBirthday:
		return false, m.handleClientBirthday(ctx, s, upd)
	case StepCategorySelect:
		return false, m.handleCategorySelect(ctx, s, upd)
	case StepProductName:
		return false, m.handleProductName(ctx, s, upd)
	case StepSideSelect:
		return false, m.handleSideSelect(ctx, s, upd)
	case StepProductPrice:
		return false, m.handleProductPrice(ctx, s, upd)
	case StepOrderSummary:
		return false, m.handleOrderSummary(ctx, s, upd)
	case StepPaymentType:
		return false, m.handlePaymentType(ctx, s, upd)
	case StepPaymentAmount:
		return false, m.handlePaymentAmount(ctx, s, upd)
	case StepPaymentSummary:
		return false, m.handlePaymentSummary(ctx, s, upd)
	case StepFinalConfirm:
		return m.handleFinalConfirm(ctx, s, upd, requestID)
	case StepConfirmCancel:
		return m.handleConfirmCancel(ctx, s, upd)
	}
	return false, fmt.Errorf("unknown dialogue step %d", s.Step)
}

func (m *Machine) send(ctx context.Context, s *Session, text string, kb bot.Keyboard) error {
	_, err := m.transport.SendMessage(ctx, s.ChatID, text, kb)
	return err
}

// --- cancellation ---

func (m *Machine) handleCancelRequest(ctx context.Context, s *Session) (bool, error) {
	if s.Step == StepConfirmCancel {
		// A repeated cancel tap must not clobber the step to return to.
		return false, m.send(ctx, s, msgConfirmCancel, confirmCancelKeyboard())
	}
	if s.hasPayments() {
		// Entered payments are easy to lose by a stray tap; ask again.
		s.ReturnStep = s.Step
		s.Step = StepConfirmCancel
		return false, m.send(ctx, s, msgConfirmCancel, confirmCancelKeyboard())
	}
	return true, m.send(ctx, s, msgCancelled, nil)
}

func (m *Machine) handleConfirmCancel(ctx context.Context, s *Session, upd bot.Update) (bool, error) {
	switch upd.Callback {
	case bot.CbCancelYes:
		return true, m.send(ctx, s, msgCancelled, nil)
	case bot.CbCancelNo:
		s.Step = s.ReturnStep
		return false, m.reprompt(ctx, s)
	}
	return false, m.send(ctx, s, msgConfirmCancel, confirmCancelKeyboard())
}

// --- client info ---

func (m *Machine) handleClientName(ctx context.Context, s *Session, upd bot.Update) error {
	if upd.IsCallback() {
		return m.Start(ctx, s)
	}
	if err := validation.ValidateName(upd.Text); err != nil {
		return m.send(ctx, s, err.Error()+"\n"+msgAskClientName, bot.Keyboard{bot.Row(cancelButton())})
	}
	s.Client.Name = upd.Text
	s.Step = StepClientPhone
	return m.send(ctx, s, msgAskPhone, skipKeyboard())
}

func (m *Machine) handleClientPhone(ctx context.Context, s *Session, upd bot.Update) error {
	if upd.Callback == bot.CbSkip {
		s.Step = StepClientBirthday
		return m.send(ctx, s, msgAskBirthday, skipKeyboard())
	}
	if upd.IsCallback() {
		return m.send(ctx, s, msgAskPhone, skipKeyboard())
	}
	phone, err := validation.ParsePhone(upd.Text)
	if err != nil {
		return m.send(ctx, s, err.Error()+"\n"+msgAskPhone, skipKeyboard())
	}
	s.Client.Phone = phone
	s.Step = StepClientBirthday
	return m.send(ctx, s, msgAskBirthday, skipKeyboard())
}

func (m *Machine) handleClientBirthday(ctx context.Context, s *Session, upd bot.Update) error {
	if upd.Callback == bot.CbSkip {
		s.Step = StepCategorySelect
		return m.showCategories(ctx, s)
	}
	if upd.IsCallback() {
		return m.send(ctx, s, msgAskBirthday, skipKeyboard())
	}
	birthday, err := validation.ParseBirthday(upd.Text)
	if err != nil {
		return m.send(ctx, s, err.Error()+"\n"+msgAskBirthday, skipKeyboard())
	}
	s.Client.Birthday = &birthday
	s.Step = StepCategorySelect
	return m.showCategories(ctx, s)
}

// --- item selection ---

func (m *Machine) showCategories(ctx context.Context, s *Session) error {
	categories, err := m.catalog.Categories(ctx)
	if err != nil {
		return err
	}
	s.Step = StepCategorySelect
	return m.send(ctx, s, msgAskCategory, categoryKeyboard(categories))
}

func (m *Machine) handleCategorySelect(ctx context.Context, s *Session, upd bot.Update) error {
	if value, ok := bot.ParseValue(upd.Callback, bot.CbCategory); ok && value == bot.CustomValue {
		s.PendingCategory = models.CustomCategory
		s.Step = StepProductName
		return m.send(ctx, s, msgAskProduct, bot.Keyboard{bot.Row(cancelButton())})
	}
	if id, ok := bot.ParseID(upd.Callback, bot.CbCategory); ok {
		category, err := m.catalog.CategoryByID(ctx, id)
		if errors.Is(err, catalog.ErrNotFound) {
			if err := m.send(ctx, s, msgGoneCategory, nil); err != nil {
				return err
			}
			return m.showCategories(ctx, s)
		}
		if err != nil {
			return err
		}
		s.PendingCategoryID = category.ID
		s.PendingCategory = category.Name
		s.Step = StepProductName
		return m.send(ctx, s, msgAskProduct, bot.Keyboard{bot.Row(cancelButton())})
	}
	return m.showCategories(ctx, s)
}

func (m *Machine) handleProductName(ctx context.Context, s *Session, upd bot.Update) error {
	if upd.IsCallback() || upd.Text == "" {
		return m.send(ctx, s, msgAskProduct, bot.Keyboard{bot.Row(cancelButton())})
	}
	s.PendingProduct = upd.Text

	if s.PendingCategory == models.CustomCategory {
		s.Step = StepProductPrice
		return m.send(ctx, s, msgAskPrice, bot.Keyboard{bot.Row(cancelButton())})
	}
	return m.showSides(ctx, s)
}

func (m *Machine) showSides(ctx context.Context, s *Session) error {
	sides, err := m.catalog.SidesByCategory(ctx, s.PendingCategoryID)
	if err != nil {
		return err
	}
	if len(sides) == 0 {
		if err := m.send(ctx, s, msgNoSides, nil); err != nil {
			return err
		}
		s.resetPending()
		return m.showCategories(ctx, s)
	}
	s.Step = StepSideSelect
	return m.send(ctx, s, msgAskSide, sideKeyboard(sides))
}

func (m *Machine) handleSideSelect(ctx context.Context, s *Session, upd bot.Update) error {
	if upd.Callback == bot.CbBack {
		s.resetPending()
		return m.showCategories(ctx, s)
	}
	id, ok := bot.ParseID(upd.Callback, bot.CbSide)
	if !ok {
		return m.showSides(ctx, s)
	}

	side, err := m.catalog.SideByID(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		if err := m.send(ctx, s, msgGoneSide, nil); err != nil {
			return err
		}
		s.resetPending()
		return m.showCategories(ctx, s)
	}
	if err != nil {
		return err
	}

	// The side fully determines the line price; there is no base price.
	item := models.LineItem{
		ProductName: s.PendingProduct,
		Category:    s.PendingCategory,
		SideName:    side.Name,
		UnitPrice:   side.Price,
		Quantity:    1,
	}
	if err := s.Cart.Add(item); err != nil {
		return m.send(ctx, s, err.Error(), nil)
	}
	s.resetPending()
	s.Step = StepOrderSummary
	return m.send(ctx, s, cartSummary(s), summaryKeyboard())
}

func (m *Machine) handleProductPrice(ctx context.Context, s *Session, upd bot.Update) error {
	if upd.IsCallback() {
		return m.send(ctx, s, msgAskPrice, bot.Keyboard{bot.Row(cancelButton())})
	}
	price, err := validation.ParseAmount(upd.Text)
	if err != nil {
		return m.send(ctx, s, err.Error()+"\n"+msgAskPrice, bot.Keyboard{bot.Row(cancelButton())})
	}
	if price <= 0 || price > ledger.MaxAmount {
		return m.send(ctx, s, ledger.ErrNotPositive.Error()+"\n"+msgAskPrice, bot.Keyboard{bot.Row(cancelButton())})
	}

	item := models.LineItem{
		ProductName: s.PendingProduct,
		Category:    models.CustomCategory,
		SideName:    models.CustomSide,
		UnitPrice:   price,
		Quantity:    1,
	}
	if err := s.Cart.Add(item); err != nil {
		return m.send(ctx, s, err.Error(), nil)
	}
	s.resetPending()
	s.Step = StepOrderSummary
	return m.send(ctx, s, cartSummary(s), summaryKeyboard())
}

func (m *Machine) handleOrderSummary(ctx context.Context, s *Session, upd bot.Update) error {
	switch upd.Callback {
	case bot.CbSummaryAdd:
		return m.showCategories(ctx, s)
	case bot.CbSummaryPay:
		if s.Cart.Empty() {
			if err := m.send(ctx, s, msgNoProducts, nil); err != nil {
				return err
			}
			return m.showCategories(ctx, s)
		}
		l, err := ledger.New(s.Cart.Total())
		if err != nil {
			return err
		}
		s.Ledger = l
		s.Step = StepPaymentType
		return m.send(ctx, s, msgAskPayType, paymentTypeKeyboard())
	}
	return m.send(ctx, s, cartSummary(s), summaryKeyboard())
}

// --- payments ---

func (m *Machine) handlePaymentType(ctx context.Context, s *Session, upd bot.Update) error {
	value, ok := bot.ParseValue(upd.Callback, bot.CbPayType)
	if !ok {
		return m.send(ctx, s, msgAskPayType, paymentTypeKeyboard())
	}
	instrument := models.Instrument(value)
	if !instrument.Valid() {
		return m.send(ctx, s, msgAskPayType, paymentTypeKeyboard())
	}
	s.PendingInstrument = instrument
	s.Step = StepPaymentAmount
	return m.send(ctx, s, askAmount(s.Ledger.Remaining()), amountKeyboard())
}

func (m *Machine) handlePaymentAmount(ctx context.Context, s *Session, upd bot.Update) error {
	var amount int64
	if upd.Callback == bot.CbPayAll {
		amount = s.Ledger.Remaining()
	} else if upd.IsCallback() {
		return m.send(ctx, s, askAmount(s.Ledger.Remaining()), amountKeyboard())
	} else {
		parsed, err := validation.ParseAmount(upd.Text)
		if err != nil {
			return m.send(ctx, s, err.Error()+"\n"+askAmount(s.Ledger.Remaining()), amountKeyboard())
		}
		amount = parsed
	}

	if err := s.Ledger.Add(s.PendingInstrument, amount); err != nil {
		return m.send(ctx, s, err.Error()+"\n"+askAmount(s.Ledger.Remaining()), amountKeyboard())
	}
	s.PendingInstrument = ""
	s.Step = StepPaymentSummary
	return m.send(ctx, s, paymentSummary(s.Ledger), paymentSummaryKeyboard(s.Ledger.Remaining()))
}

func (m *Machine) handlePaymentSummary(ctx context.Context, s *Session, upd bot.Update) error {
	switch upd.Callback {
	case bot.CbPayUndo:
		if _, err := s.Ledger.RemoveLast(); err != nil {
			return m.send(ctx, s, err.Error(), paymentSummaryKeyboard(s.Ledger.Remaining()))
		}
		return m.send(ctx, s, paymentSummary(s.Ledger), paymentSummaryKeyboard(s.Ledger.Remaining()))
	case bot.CbPayNext:
		if !s.Ledger.Complete() {
			s.Step = StepPaymentType
			return m.send(ctx, s, msgAskPayType, paymentTypeKeyboard())
		}
		s.Step = StepFinalConfirm
		return m.send(ctx, s, finalSummary(s), confirmKeyboard())
	}
	return m.send(ctx, s, paymentSummary(s.Ledger), paymentSummaryKeyboard(s.Ledger.Remaining()))
}

// --- commit ---

func (m *Machine) handleFinalConfirm(ctx context.Context, s *Session, upd bot.Update, requestID string) (bool, error) {
	switch upd.Callback {
	case bot.CbConfirm, bot.CbRetry:
		return m.commit(ctx, s, requestID)
	}
	return false, m.send(ctx, s, finalSummary(s), confirmKeyboard())
}

func (m *Machine) commit(ctx context.Context, s *Session, requestID string) (bool, error) {
	draft := order.Draft{
		CashierChatID: s.ChatID,
		Client:        s.Client,
		Items:         s.Cart.Items,
		Total:         s.Cart.Total(),
	}
	for _, e := range s.Ledger.Entries {
		draft.Payments = append(draft.Payments, models.Payment{Instrument: e.Instrument, Amount: e.Amount})
	}

	created, err := m.committer.Commit(ctx, requestID, draft)
	if err != nil {
		return false, m.handleCommitError(ctx, s, requestID, err)
	}

	// Best-effort fan-out, before the success reply so a transport failure
	// cannot skip it. The order is committed either way.
	if err := m.notifier.OrderCreated(ctx, requestID, created); err != nil {
		m.logger.Error(requestID, "notify_failed", "Failed to enqueue order side effects", err)
	}

	return true, m.send(ctx, s, fmt.Sprintf("Order %s created. Total: %s.",
		created.Number, models.FormatAmount(created.TotalAmount)), nil)
}

func (m *Machine) handleCommitError(ctx context.Context, s *Session, requestID string, err error) error {
	m.logger.Error(requestID, "commit_rejected", "Order commit did not succeed", err)

	switch {
	case errors.Is(err, order.ErrNoProducts):
		if err := m.send(ctx, s, msgNoProducts, nil); err != nil {
			return err
		}
		return m.showCategories(ctx, s)
	case errors.Is(err, order.ErrPaymentsIncomplete):
		s.Step = StepPaymentSummary
		return m.send(ctx, s, paymentSummary(s.Ledger), paymentSummaryKeyboard(s.Ledger.Remaining()))
	case errors.Is(err, order.ErrNoBranch), errors.Is(err, order.ErrUserNotFound):
		return m.send(ctx, s, msgNoBranch, retryKeyboard())
	default:
		// Conflict or storage failure: the draft is intact, offer retry.
		return m.send(ctx, s, msgCommitFailed, retryKeyboard())
	}
}

// reprompt re-sends the prompt of the current step after a declined
// cancel, without touching any collected data.
func (m *Machine) reprompt(ctx context.Context, s *Session) error {
	switch s.Step {
	case StepClientName:
		return m.Start(ctx, s)
	case StepClientPhone:
		return m.send(ctx, s, msgAskPhone, skipKeyboard())
	case StepClientBirthday:
		return m.send(ctx, s, msgAskBirthday, skipKeyboard())
	case StepCategorySelect:
		return m.showCategories(ctx, s)
	case StepProductName:
		return m.send(ctx, s, msgAskProduct, bot.Keyboard{bot.Row(cancelButton())})
	case StepSideSelect:
		return m.showSides(ctx, s)
	case StepProductPrice:
		return m.send(ctx, s, msgAskPrice, bot.Keyboard{bot.Row(cancelButton())})
	case StepOrderSummary:
		return m.send(ctx, s, cartSummary(s), summaryKeyboard())
	case StepPaymentType:
		return m.send(ctx, s, msgAskPayType, paymentTypeKeyboard())
	case StepPaymentAmount:
		return m.send(ctx, s, askAmount(s.Ledger.Remaining()), amountKeyboard())
	case StepPaymentSummary:
		return m.send(ctx, s, paymentSummary(s.Ledger), paymentSummaryKeyboard(s.Ledger.Remaining()))
	case StepFinalConfirm:
		return m.send(ctx, s, finalSummary(s), confirmKeyboard())
	}
	return nil
}
