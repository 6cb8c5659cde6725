package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer drains the reservation event queue and appends one line per
// event to <LogDir>/booking.log.  It stands in for the notification
// channel: confirmed events carry a click-to-chat link the host can use
// to message the guest.
type Consumer struct {
	URL    string
	Queue  string
	LogDir string
	Log    *zap.Logger

	mu sync.Mutex
}

// Run connects, consumes and reconnects with exponential backoff until
// ctx is cancelled.  It returns ctx.Err() on shutdown.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("queue: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("queue: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("queue: set QoS failed", zap.Error(err))
	}
	if _, err := declare(ch, c.Queue); err != nil {
		return err
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.Log.Info("queue: consumer started", zap.String("queue", c.Queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.Log.Error("queue: handle message failed", zap.Error(err))
				// no requeue: a poison message would spin forever
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one event body and appends it to the booking log.
func (c *Consumer) Handle(body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Reference == "" || ev.Type == "" {
		return errors.New("event missing type or reference")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dir := c.LogDir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single booking-log line.
func FormatLine(ev ReservationEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | ref=%s | reservation_id=%d | name=%q | party=%d | time=%q | section=%q | tables=[%s]",
		ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.Reference, ev.ReservationID,
		ev.CustomerName, ev.PartySize, ev.LocalTime, ev.Section, strings.Join(ev.Tables, ","))
	if link := WhatsAppLink(ev); link != "" {
		fmt.Fprintf(&b, " | notify=%s", link)
	}
	b.WriteByte('\n')
	return b.String()
}

// WhatsAppLink builds a wa.me click-to-chat link with a prefilled message
// for the guest's phone.  It returns "" when the event has no usable phone.
func WhatsAppLink(ev ReservationEvent) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, ev.CustomerPhone)
	if len(digits) < 7 {
		return ""
	}

	var msg string
	switch ev.Type {
	case EventCancelled:
		msg = fmt.Sprintf("Hi %s, your reservation %s for %s has been cancelled.", ev.CustomerName, ev.Reference, ev.LocalTime)
	case EventRescheduled:
		msg = fmt.Sprintf("Hi %s, your reservation %s has been moved to %s (party of %d).", ev.CustomerName, ev.Reference, ev.LocalTime, ev.PartySize)
	default:
		msg = fmt.Sprintf("Hi %s, your table for %d on %s is confirmed. Reference: %s", ev.CustomerName, ev.PartySize, ev.LocalTime, ev.Reference)
	}
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(msg)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
