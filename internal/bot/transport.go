package bot

import "context"

// Button is one inline key; Data is the callback payload, kept under 64
// bytes by convention and routed by prefix (e.g. "side:12").
type Button struct {
	Text string
	Data string
}

type Keyboard [][]Button

func Row(buttons ...Button) []Button {
	return buttons
}

// Transport is the chat-layer contract. The real messenger client lives
// outside this module; Console is a local stand-in.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard Keyboard) (int64, error)
	EditMessage(ctx context.Context, chatID, messageID int64, text string, keyboard Keyboard) error
}

// Update is one inbound chat event: either a text message or a callback
// from an inline button, never both.
type Update struct {
	ChatID    int64
	UserID    int64
	MessageID int64
	Text      string
	Callback  string
}

func (u Update) IsCallback() bool {
	return u.Callback != ""
}

// Source delivers inbound updates. The chat transport guarantees per-chat
// arrival order.
type Source interface {
	Updates(ctx context.Context) <-chan Update
}
