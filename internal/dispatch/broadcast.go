package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tandyr-pos/internal/bot"
	"tandyr-pos/internal/settings"
	"tandyr-pos/pkg/models"
)

// ChannelSource yields the broadcast destination; nil means not configured.
type ChannelSource interface {
	Channel(ctx context.Context) (*settings.ChannelConfig, error)
}

type Broadcaster struct {
	transport bot.Transport
	channels  ChannelSource
}

func NewBroadcaster(transport bot.Transport, channels ChannelSource) *Broadcaster {
	return &Broadcaster{transport: transport, channels: channels}
}

func (b *Broadcaster) Broadcast(ctx context.Context, event OrderCreated) error {
	cfg, err := b.channels.Channel(ctx)
	if err != nil {
		return err
	}
	if cfg == nil {
		return nil
	}

	_, err = b.transport.SendMessage(ctx, cfg.ChatID, FormatReceipt(event.Order), nil)
	return err
}

// FormatReceipt renders the broadcast summary of a committed order.
func FormatReceipt(order models.Order) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "New order %s\n", order.Number)
	fmt.Fprintf(&sb, "Client: %s\n", order.ClientName)
	if order.ClientPhone != "" {
		fmt.Fprintf(&sb, "Phone: %s\n", order.ClientPhone)
	}
	sb.WriteString("\n")
	for _, item := range order.Items {
		fmt.Fprintf(&sb, "%s (%s) x%d = %s\n",
			item.ProductName, item.SideName, item.Quantity,
			models.FormatAmount(item.UnitPrice*int64(item.Quantity)))
	}
	sb.WriteString("\nPayments:\n")
	for _, p := range order.Payments {
		fmt.Fprintf(&sb, "%s: %s\n", p.Instrument, models.FormatAmount(p.Amount))
	}
	fmt.Fprintf(&sb, "\nTotal: %s\n", models.FormatAmount(order.TotalAmount))
	fmt.Fprintf(&sb, "Created: %s", order.CreatedAt.Format(time.RFC3339))
	return sb.String()
}
