package bot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

// Console is a terminal-backed transport for local runs: messages print to
// stdout, button presses are entered as "/cb <data>". It doubles as the
// update source for the same single chat.
type Console struct {
	chatID    int64
	userID    int64
	in        io.Reader
	out       io.Writer
	messageID atomic.Int64
}

func NewConsole(chatID, userID int64, in io.Reader, out io.Writer) *Console {
	return &Console{chatID: chatID, userID: userID, in: in, out: out}
}

func (c *Console) SendMessage(_ context.Context, _ int64, text string, keyboard Keyboard) (int64, error) {
	fmt.Fprintln(c.out, text)
	c.printKeyboard(keyboard)
	return c.messageID.Add(1), nil
}

func (c *Console) EditMessage(_ context.Context, _, _ int64, text string, keyboard Keyboard) error {
	fmt.Fprintln(c.out, text)
	c.printKeyboard(keyboard)
	return nil
}

func (c *Console) printKeyboard(keyboard Keyboard) {
	for _, row := range keyboard {
		var parts []string
		for _, b := range row {
			parts = append(parts, fmt.Sprintf("[%s -> /cb %s]", b.Text, b.Data))
		}
		fmt.Fprintln(c.out, "  "+strings.Join(parts, " "))
	}
}

func (c *Console) Updates(ctx context.Context) <-chan Update {
	updates := make(chan Update)
	go func() {
		defer close(updates)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			upd := Update{ChatID: c.chatID, UserID: c.userID}
			if data, ok := strings.CutPrefix(line, "/cb "); ok {
				upd.Callback = strings.TrimSpace(data)
			} else {
				upd.Text = line
			}
			select {
			case updates <- upd:
			case <-ctx.Done():
				return
			}
		}
	}()
	return updates
}
