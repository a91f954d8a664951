package dialogue

import (
	"fmt"
	"strings"

	"tandyr-pos/internal/bot"
	"tandyr-pos/internal/ledger"
	"tandyr-pos/pkg/models"
)

const (
	msgAskClientName = "New order. Enter the client's name:"
	msgAskPhone      = "Enter the client's phone number (at least 9 digits), or skip:"
	msgAskBirthday   = "Enter the client's birthday as YYYY-MM-DD, or skip:"
	msgAskCategory   = "Pick a category:"
	msgAskProduct    = "Enter the product name:"
	msgAskSide       = "Pick a side, it sets the price:"
	msgAskPrice      = "Enter the price (whole number):"
	msgAskPayType    = "Pick a payment type:"
	msgCancelled     = "Order cancelled."
	msgConfirmCancel = "Payments have already been entered. Discard this order?"
	msgNoProducts    = "The cart is empty. Add at least one product before payment."
	msgNoSides       = "This category has no sides yet. Pick another category."
	msgGoneCategory  = "That category is no longer available. Pick another one."
	msgGoneSide      = "That side is no longer available. Pick another category."
	msgCommitFailed  = "Could not save the order. Nothing was lost, you can retry."
	msgInternalError = "Something went wrong. Nothing was lost, please try again."
	msgNoBranch      = "You have no branch assigned. Ask an administrator to set one, then retry."
)

func cancelButton() bot.Button {
	return bot.Button{Text: "Cancel order", Data: bot.CbCancel}
}

func skipKeyboard() bot.Keyboard {
	return bot.Keyboard{
		bot.Row(bot.Button{Text: "Skip", Data: bot.CbSkip}),
		bot.Row(cancelButton()),
	}
}

func categoryKeyboard(categories []models.Category) bot.Keyboard {
	var kb bot.Keyboard
	for _, c := range categories {
		kb = append(kb, bot.Row(bot.Button{Text: c.Name, Data: fmt.Sprintf("%s%d", bot.CbCategory, c.ID)}))
	}
	kb = append(kb, bot.Row(bot.Button{Text: models.CustomCategory, Data: bot.CbCategory + bot.CustomValue}))
	kb = append(kb, bot.Row(cancelButton()))
	return kb
}

func sideKeyboard(sides []models.Side) bot.Keyboard {
	var kb bot.Keyboard
	for _, s := range sides {
		label := fmt.Sprintf("%s: %s", s.Name, models.FormatAmount(s.Price))
		kb = append(kb, bot.Row(bot.Button{Text: label, Data: fmt.Sprintf("%s%d", bot.CbSide, s.ID)}))
	}
	kb = append(kb, bot.Row(bot.Button{Text: "Back to categories", Data: bot.CbBack}))
	kb = append(kb, bot.Row(cancelButton()))
	return kb
}

func summaryKeyboard() bot.Keyboard {
	return bot.Keyboard{
		bot.Row(
			bot.Button{Text: "Add another", Data: bot.CbSummaryAdd},
			bot.Button{Text: "Go to payment", Data: bot.CbSummaryPay},
		),
		bot.Row(cancelButton()),
	}
}

func paymentTypeKeyboard() bot.Keyboard {
	return bot.Keyboard{
		bot.Row(
			bot.Button{Text: "Cash", Data: bot.CbPayType + string(models.InstrumentCash)},
			bot.Button{Text: "Card", Data: bot.CbPayType + string(models.InstrumentCard)},
			bot.Button{Text: "Transfer", Data: bot.CbPayType + string(models.InstrumentTransfer)},
		),
		bot.Row(cancelButton()),
	}
}

func amountKeyboard() bot.Keyboard {
	return bot.Keyboard{
		bot.Row(bot.Button{Text: "Pay all remaining", Data: bot.CbPayAll}),
		bot.Row(cancelButton()),
	}
}

func paymentSummaryKeyboard(remaining int64) bot.Keyboard {
	next := bot.Button{Text: "Add payment", Data: bot.CbPayNext}
	if remaining == 0 {
		next = bot.Button{Text: "Continue", Data: bot.CbPayNext}
	}
	return bot.Keyboard{
		bot.Row(next),
		bot.Row(bot.Button{Text: "Remove last payment", Data: bot.CbPayUndo}),
		bot.Row(cancelButton()),
	}
}

func confirmKeyboard() bot.Keyboard {
	return bot.Keyboard{
		bot.Row(bot.Button{Text: "Confirm order", Data: bot.CbConfirm}),
		bot.Row(cancelButton()),
	}
}

func retryKeyboard() bot.Keyboard {
	return bot.Keyboard{
		bot.Row(bot.Button{Text: "Retry", Data: bot.CbRetry}),
		bot.Row(cancelButton()),
	}
}

func confirmCancelKeyboard() bot.Keyboard {
	return bot.Keyboard{
		bot.Row(
			bot.Button{Text: "Discard order", Data: bot.CbCancelYes},
			bot.Button{Text: "Keep entering", Data: bot.CbCancelNo},
		),
	}
}

func cartSummary(s *Session) string {
	var sb strings.Builder
	sb.WriteString("Current order:\n")
	for i, item := range s.Cart.Items {
		fmt.Fprintf(&sb, "%d. %s (%s) x%d = %s\n",
			i+1, item.ProductName, item.SideName, item.Quantity,
			models.FormatAmount(item.UnitPrice*int64(item.Quantity)))
	}
	fmt.Fprintf(&sb, "Total: %s", models.FormatAmount(s.Cart.Total()))
	return sb.String()
}

func paymentSummary(l *ledger.Ledger) string {
	var sb strings.Builder
	sb.WriteString("Payments:\n")
	for i, e := range l.Entries {
		fmt.Fprintf(&sb, "%d. %s: %s\n", i+1, e.Instrument, models.FormatAmount(e.Amount))
	}
	fmt.Fprintf(&sb, "Paid: %s of %s\n", models.FormatAmount(l.Paid()), models.FormatAmount(l.Target))
	if l.Complete() {
		sb.WriteString("Fully paid.")
	} else {
		fmt.Fprintf(&sb, "Remaining: %s", models.FormatAmount(l.Remaining()))
	}
	return sb.String()
}

func finalSummary(s *Session) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Client: %s\n", s.Client.Name)
	if s.Client.Phone != "" {
		fmt.Fprintf(&sb, "Phone: %s\n", s.Client.Phone)
	}
	if s.Client.Birthday != nil {
		fmt.Fprintf(&sb, "Birthday: %s\n", s.Client.Birthday.Format("2006-01-02"))
	}
	sb.WriteString("\n")
	sb.WriteString(cartSummary(s))
	sb.WriteString("\n\n")
	sb.WriteString(paymentSummary(s.Ledger))
	sb.WriteString("\n\nConfirm the order?")
	return sb.String()
}

func askAmount(remaining int64) string {
	return fmt.Sprintf("Remaining: %s. Enter the amount (whole number):", models.FormatAmount(remaining))
}
