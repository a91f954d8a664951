package dialogue

import (
	"context"
	"errors"
	"io"
	"testing"

	"tandyr-pos/internal/bot"
	"tandyr-pos/internal/catalog"
	"tandyr-pos/internal/order"
	"tandyr-pos/pkg/logger"
	"tandyr-pos/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	sent []string
	err  error
}

func (f *fakeTransport) SendMessage(_ context.Context, _ int64, text string, _ bot.Keyboard) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.sent = append(f.sent, text)
	return int64(len(f.sent)), nil
}

func (f *fakeTransport) EditMessage(context.Context, int64, int64, string, bot.Keyboard) error {
	return f.err
}

func (f *fakeTransport) last() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type fakeCatalog struct {
	categories []models.Category
	sides      map[int64][]models.Side
	gone       bool
	err        error
}

func (f *fakeCatalog) Categories(context.Context) ([]models.Category, error) {
	return f.categories, f.err
}

func (f *fakeCatalog) CategoryByID(_ context.Context, id int64) (models.Category, error) {
	if f.gone {
		return models.Category{}, catalog.ErrNotFound
	}
	for _, c := range f.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Category{}, catalog.ErrNotFound
}

func (f *fakeCatalog) SidesByCategory(_ context.Context, categoryID int64) ([]models.Side, error) {
	return f.sides[categoryID], nil
}

func (f *fakeCatalog) SideByID(_ context.Context, id int64) (models.Side, error) {
	if f.gone {
		return models.Side{}, catalog.ErrNotFound
	}
	for _, sides := range f.sides {
		for _, s := range sides {
			if s.ID == id {
				return s, nil
			}
		}
	}
	return models.Side{}, catalog.ErrNotFound
}

type fakeCommitter struct {
	drafts   []order.Draft
	failWith error
	failures int
}

func (f *fakeCommitter) Commit(_ context.Context, _ string, draft order.Draft) (models.Order, error) {
	if f.failures > 0 {
		f.failures--
		return models.Order{}, f.failWith
	}
	f.drafts = append(f.drafts, draft)
	return models.Order{
		ID:          int64(len(f.drafts)),
		Number:      "ORD_20260829_001_B1",
		ClientName:  draft.Client.Name,
		TotalAmount: draft.Total,
		Items:       draft.Items,
		Payments:    draft.Payments,
	}, nil
}

type fakeNotifier struct {
	orders []models.Order
	err    error
}

func (f *fakeNotifier) OrderCreated(_ context.Context, _ string, o models.Order) error {
	if f.err != nil {
		return f.err
	}
	f.orders = append(f.orders, o)
	return nil
}

func newTestMachine(t *testing.T) (*Machine, *fakeTransport, *fakeCommitter, *fakeNotifier) {
	t.Helper()
	transport := &fakeTransport{}
	committer := &fakeCommitter{}
	notifier := &fakeNotifier{}
	cat := &fakeCatalog{
		categories: []models.Category{{ID: 1, Name: "Noodles"}, {ID: 2, Name: "Rice"}},
		sides: map[int64][]models.Side{
			1: {
				{ID: 10, CategoryID: 1, Name: "Small", Price: 20000},
				{ID: 11, CategoryID: 1, Name: "Large", Price: 25000},
			},
			2: {
				{ID: 20, CategoryID: 2, Name: "Standard", Price: 30000},
			},
		},
	}
	m := NewMachine(cat, committer, notifier, transport, logger.NewWithWriter("dialogue-test", io.Discard))
	return m, transport, committer, notifier
}

func text(t string) bot.Update     { return bot.Update{ChatID: 42, Text: t} }
func callback(d string) bot.Update { return bot.Update{ChatID: 42, Callback: d} }

// drive feeds updates and fails the test if the session finishes early.
func drive(t *testing.T, m *Machine, s *Session, updates ...bot.Update) {
	t.Helper()
	for _, upd := range updates {
		done, err := m.Handle(context.Background(), s, upd)
		require.NoError(t, err)
		require.False(t, done, "session finished early on %+v", upd)
	}
}

func TestDialogue_SingleCashPaymentFlow(t *testing.T) {
	m, transport, committer, notifier := newTestMachine(t)
	s := NewSession(42)
	require.NoError(t, m.Start(context.Background(), s))

	drive(t, m, s,
		text("Dana"),
		callback(bot.CbSkip), // no phone
		callback(bot.CbSkip), // no birthday
		callback("cat:1"),
		text("Lagman"),
		callback("side:11"), // Large, 25000
		callback(bot.CbSummaryPay),
		callback("pay:CASH"),
		text("25000"),
		callback(bot.CbPayNext),
	)
	assert.Equal(t, StepFinalConfirm, s.Step)
	assert.True(t, s.Ledger.Complete())

	done, err := m.Handle(context.Background(), s, callback(bot.CbConfirm))
	require.NoError(t, err)
	assert.True(t, done)

	require.Len(t, committer.drafts, 1)
	draft := committer.drafts[0]
	assert.Equal(t, "Dana", draft.Client.Name)
	assert.Equal(t, int64(25000), draft.Total)
	require.Len(t, draft.Items, 1)
	assert.Equal(t, "Lagman", draft.Items[0].ProductName)
	assert.Equal(t, int64(25000), draft.Items[0].UnitPrice)
	require.Len(t, draft.Payments, 1)
	assert.Equal(t, models.InstrumentCash, draft.Payments[0].Instrument)

	require.Len(t, notifier.orders, 1)
	assert.Contains(t, transport.last(), "ORD_20260829_001_B1")
}

func TestDialogue_SplitPaymentWithUndo(t *testing.T) {
	m, _, committer, _ := newTestMachine(t)
	s := NewSession(42)
	require.NoError(t, m.Start(context.Background(), s))

	drive(t, m, s,
		text("Bek"),
		callback(bot.CbSkip),
		callback(bot.CbSkip),
		callback("cat:1"),
		text("Lagman"),
		callback("side:11"), // 25000
		callback(bot.CbSummaryAdd),
		callback("cat:1"),
		text("Manty"),
		callback("side:10"), // 20000
		callback(bot.CbSummaryPay),
		callback("pay:CASH"),
		text("20000"),
		callback(bot.CbPayNext), // remaining 25000 -> back to type select
		callback("pay:CARD"),
		callback(bot.CbPayAll), // pays remaining 25000
	)
	assert.True(t, s.Ledger.Complete())

	// Undo the card payment, then re-enter it.
	drive(t, m, s,
		callback(bot.CbPayUndo),
	)
	assert.Equal(t, int64(25000), s.Ledger.Remaining())
	require.Len(t, s.Ledger.Entries, 1)
	assert.Equal(t, models.InstrumentCash, s.Ledger.Entries[0].Instrument)

	drive(t, m, s,
		callback(bot.CbPayNext),
		callback("pay:TRANSFER"),
		text("25000"),
		callback(bot.CbPayNext),
	)
	done, err := m.Handle(context.Background(), s, callback(bot.CbConfirm))
	require.NoError(t, err)
	assert.True(t, done)

	require.Len(t, committer.drafts, 1)
	payments := committer.drafts[0].Payments
	require.Len(t, payments, 2)
	assert.Equal(t, models.InstrumentCash, payments[0].Instrument)
	assert.Equal(t, models.InstrumentTransfer, payments[1].Instrument)
}

func TestDialogue_InvalidInputsReprompt(t *testing.T) {
	m, transport, _, _ := newTestMachine(t)
	s := NewSession(42)
	require.NoError(t, m.Start(context.Background(), s))

	drive(t, m, s, text("Dana"))
	assert.Equal(t, StepClientPhone, s.Step)

	drive(t, m, s, text("12345"))
	assert.Equal(t, StepClientPhone, s.Step, "bad phone must not advance")
	assert.Contains(t, transport.last(), "at least 9 digits")

	drive(t, m, s, text("+7 701 123 45 67"))
	assert.Equal(t, StepClientBirthday, s.Step)

	drive(t, m, s, text("2099-01-01"))
	assert.Equal(t, StepClientBirthday, s.Step, "future birthday must not advance")

	drive(t, m, s, text("1990-05-14"), callback("cat:1"), text("Lagman"), callback("side:11"), callback(bot.CbSummaryPay), callback("pay:CASH"))

	drive(t, m, s, text("15000.5"))
	assert.Equal(t, StepPaymentAmount, s.Step)
	assert.Contains(t, transport.last(), "whole numbers")

	drive(t, m, s, text("30000"))
	assert.Equal(t, StepPaymentAmount, s.Step, "overpayment must not advance")
	assert.Contains(t, transport.last(), "exceeds the remaining balance")

	drive(t, m, s, text("25000"))
	assert.Equal(t, StepPaymentSummary, s.Step)
}

func TestDialogue_CustomItemFlow(t *testing.T) {
	m, _, committer, _ := newTestMachine(t)
	s := NewSession(42)
	require.NoError(t, m.Start(context.Background(), s))

	drive(t, m, s,
		text("Dana"),
		callback(bot.CbSkip),
		callback(bot.CbSkip),
		callback("cat:custom"),
		text("Birthday cake"),
		text("40000"),
		callback(bot.CbSummaryPay),
		callback("pay:CARD"),
		callback(bot.CbPayAll),
		callback(bot.CbPayNext),
	)
	done, err := m.Handle(context.Background(), s, callback(bot.CbConfirm))
	require.NoError(t, err)
	assert.True(t, done)

	require.Len(t, committer.drafts, 1)
	item := committer.drafts[0].Items[0]
	assert.Equal(t, models.CustomCategory, item.Category)
	assert.Equal(t, models.CustomSide, item.SideName)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, int64(40000), item.UnitPrice)
}

func TestDialogue_CancelWithoutPaymentsEndsImmediately(t *testing.T) {
	m, _, _, _ := newTestMachine(t)
	s := NewSession(42)
	require.NoError(t, m.Start(context.Background(), s))

	drive(t, m, s, text("Dana"))

	done, err := m.Handle(context.Background(), s, callback(bot.CbCancel))
	require.NoError(t, err)
	assert.True(t, done)
}

func TestDialogue_CancelWithPaymentsNeedsConfirmation(t *testing.T) {
	m, _, _, _ := newTestMachine(t)
	s := NewSession(42)
	require.NoError(t, m.Start(context.Background(), s))

	drive(t, m, s,
		text("Dana"),
		callback(bot.CbSkip),
		callback(bot.CbSkip),
		callback("cat:1"),
		text("Lagman"),
		callback("side:11"),
		callback(bot.CbSummaryPay),
		callback("pay:CASH"),
		text("10000"),
	)

	done, err := m.Handle(context.Background(), s, callback(bot.CbCancel))
	require.NoError(t, err)
	assert.False(t, done, "payments present: cancel needs a confirmation")
	assert.Equal(t, StepConfirmCancel, s.Step)

	// Declining the cancel returns to the interrupted step with data intact.
	done, err = m.Handle(context.Background(), s, callback(bot.CbCancelNo))
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, StepPaymentSummary, s.Step)
	assert.Len(t, s.Ledger.Entries, 1)

	done, err = m.Handle(context.Background(), s, callback(bot.CbCancel))
	require.NoError(t, err)
	require.False(t, done)
	done, err = m.Handle(context.Background(), s, callback(bot.CbCancelYes))
	require.NoError(t, err)
	assert.True(t, done)
}

func TestDialogue_RepeatedCancelKeepsReturnStep(t *testing.T) {
	m, transport, _, _ := newTestMachine(t)
	s := NewSession(42)
	require.NoError(t, m.Start(context.Background(), s))

	drive(t, m, s,
		text("Dana"),
		callback(bot.CbSkip),
		callback(bot.CbSkip),
		callback("cat:1"),
		text("Lagman"),
		callback("side:11"),
		callback(bot.CbSummaryPay),
		callback("pay:CASH"),
		text("10000"),
	)
	require.Equal(t, StepPaymentSummary, s.Step)

	// Two cancel taps in a row, then the cashier keeps entering.
	drive(t, m, s, callback(bot.CbCancel))
	require.Equal(t, StepConfirmCancel, s.Step)
	drive(t, m, s, callback(bot.CbCancel))
	require.Equal(t, StepConfirmCancel, s.Step)

	done, err := m.Handle(context.Background(), s, callback(bot.CbCancelNo))
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, StepPaymentSummary, s.Step, "declining cancel must return to the interrupted step")
	assert.Len(t, s.Ledger.Entries, 1)
	assert.Contains(t, transport.last(), "Payments:")
}

func TestDialogue_CatalogFailureStillReplies(t *testing.T) {
	m, transport, _, _ := newTestMachine(t)
	s := NewSession(42)
	require.NoError(t, m.Start(context.Background(), s))

	drive(t, m, s, text("Dana"), callback(bot.CbSkip))

	cat := m.catalog.(*fakeCatalog)
	cat.err = errors.New("storage down")

	done, err := m.Handle(context.Background(), s, callback(bot.CbSkip))
	require.Error(t, err)
	assert.False(t, done)
	assert.Contains(t, transport.last(), "went wrong", "infrastructure failure must not leave the cashier without a reply")

	// The backend recovers, the same input works again.
	cat.err = nil
	drive(t, m, s, callback(bot.CbSkip))
	assert.Equal(t, StepCategorySelect, s.Step)
}

func TestDialogue_SendFailureDoesNotSkipFanOut(t *testing.T) {
	m, transport, committer, notifier := newTestMachine(t)
	s := NewSession(42)
	require.NoError(t, m.Start(context.Background(), s))

	drive(t, m, s,
		text("Dana"),
		callback(bot.CbSkip),
		callback(bot.CbSkip),
		callback("cat:1"),
		text("Lagman"),
		callback("side:11"),
		callback(bot.CbSummaryPay),
		callback("pay:CASH"),
		callback(bot.CbPayAll),
		callback(bot.CbPayNext),
	)

	transport.err = errors.New("chat unreachable")

	done, err := m.Handle(context.Background(), s, callback(bot.CbConfirm))
	require.Error(t, err)
	assert.True(t, done, "the order is committed, the session is finished")
	require.Len(t, committer.drafts, 1)
	require.Len(t, notifier.orders, 1, "fan-out must not depend on the success reply landing")
}

func TestDialogue_CommitConflictRetriesWithSameDraft(t *testing.T) {
	m, transport, committer, _ := newTestMachine(t)
	committer.failWith = order.ErrOrderNumberConflict
	committer.failures = 1

	s := NewSession(42)
	require.NoError(t, m.Start(context.Background(), s))

	drive(t, m, s,
		text("Dana"),
		callback(bot.CbSkip),
		callback(bot.CbSkip),
		callback("cat:1"),
		text("Lagman"),
		callback("side:11"),
		callback(bot.CbSummaryPay),
		callback("pay:CASH"),
		callback(bot.CbPayAll),
		callback(bot.CbPayNext),
	)

	done, err := m.Handle(context.Background(), s, callback(bot.CbConfirm))
	require.NoError(t, err)
	assert.False(t, done, "conflict keeps the session alive for retry")
	assert.Contains(t, transport.last(), "retry")

	done, err = m.Handle(context.Background(), s, callback(bot.CbRetry))
	require.NoError(t, err)
	assert.True(t, done)
	require.Len(t, committer.drafts, 1)
	assert.Equal(t, "Dana", committer.drafts[0].Client.Name)
}

func TestDialogue_NotifierFailureDoesNotAffectSuccess(t *testing.T) {
	m, transport, committer, notifier := newTestMachine(t)
	notifier.err = errors.New("broker unavailable")

	s := NewSession(42)
	require.NoError(t, m.Start(context.Background(), s))

	drive(t, m, s,
		text("Dana"),
		callback(bot.CbSkip),
		callback(bot.CbSkip),
		callback("cat:1"),
		text("Lagman"),
		callback("side:11"),
		callback(bot.CbSummaryPay),
		callback("pay:CASH"),
		callback(bot.CbPayAll),
		callback(bot.CbPayNext),
	)

	done, err := m.Handle(context.Background(), s, callback(bot.CbConfirm))
	require.NoError(t, err, "notifier failure must never surface")
	assert.True(t, done)
	assert.Len(t, committer.drafts, 1)
	assert.Contains(t, transport.sent[len(transport.sent)-1], "created")
}

func TestDialogue_GoneSideReturnsToCategories(t *testing.T) {
	m, transport, _, _ := newTestMachine(t)
	s := NewSession(42)
	require.NoError(t, m.Start(context.Background(), s))

	drive(t, m, s,
		text("Dana"),
		callback(bot.CbSkip),
		callback(bot.CbSkip),
		callback("cat:1"),
		text("Lagman"),
	)
	require.Equal(t, StepSideSelect, s.Step)

	// Admin deleted the side mid-dialogue.
	cat := m.catalog.(*fakeCatalog)
	cat.gone = true

	drive(t, m, s, callback("side:11"))
	assert.Equal(t, StepCategorySelect, s.Step)
	assert.Contains(t, transport.sent[len(transport.sent)-2], "no longer available")
	assert.Empty(t, s.PendingProduct, "partial item is reset")
	assert.True(t, s.Cart.Empty())
}

func TestDialogue_BackFromSidesKeepsCart(t *testing.T) {
	m, _, _, _ := newTestMachine(t)
	s := NewSession(42)
	require.NoError(t, m.Start(context.Background(), s))

	drive(t, m, s,
		text("Dana"),
		callback(bot.CbSkip),
		callback(bot.CbSkip),
		callback("cat:1"),
		text("Lagman"),
		callback("side:11"),
		callback(bot.CbSummaryAdd),
		callback("cat:2"),
		text("Plov"),
		callback(bot.CbBack),
	)
	assert.Equal(t, StepCategorySelect, s.Step)
	assert.Equal(t, 1, s.Cart.Len(), "accumulated cart survives the back action")
	assert.Empty(t, s.PendingProduct)
}
