// Package ingest contains the single consumer loop that turns inbound chat
// messages into journal entries.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"jotbot/internal/domain"
	"jotbot/internal/journal"
)

// Ingestor consumes messages from the bus one at a time, downloads their
// attachments, appends a formatted entry to the daily journal file, and
// acknowledges receipt. A failed write is logged and the message dropped;
// there is no retry and no queueing beyond the in-process bus.
type Ingestor struct {
	writer *journal.Writer
	store  *journal.AttachmentStore
	bus    domain.MessageBus
	logger *slog.Logger
}

type Config struct {
	Writer *journal.Writer
	Store  *journal.AttachmentStore
	Bus    domain.MessageBus
	Logger *slog.Logger
}

func New(cfg Config) *Ingestor {
	return &Ingestor{
		writer: cfg.Writer,
		store:  cfg.Store,
		bus:    cfg.Bus,
		logger: cfg.Logger,
	}
}

// Run processes messages until the context is cancelled or the bus closes.
// Messages are handled to completion one at a time, so entries land in the
// daily file in receipt order.
func (i *Ingestor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			i.logger.Info("ingestor stopping")
			return
		case msg, ok := <-i.bus.Subscribe():
			if !ok {
				i.logger.Info("ingestor stopping: bus closed")
				return
			}
			i.handle(ctx, msg)
		}
	}
}

func (i *Ingestor) handle(ctx context.Context, msg domain.Message) {
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var refs []journal.Ref
	failed := 0
	for _, att := range msg.Attachments {
		name, rel, err := i.store.Save(ctx, ts, att.Name, att.URL)
		if err != nil {
			i.logger.Error("attachment save failed",
				"kind", att.Kind, "name", att.Name, "err", err,
			)
			failed++
			continue
		}
		label := name
		if att.Kind == "photo" {
			label = "Photo"
		}
		refs = append(refs, journal.Ref{Kind: att.Kind, Label: label, Path: rel})
	}

	if msg.Text == "" && len(refs) == 0 {
		// Nothing survived: no text and every attachment failed.
		i.ack(msg, "Failed to save attachment(s), nothing written.")
		return
	}

	entry := journal.Entry{
		Time:   ts,
		Sender: msg.Sender,
		Text:   msg.Text,
		Refs:   refs,
	}

	path, err := i.writer.Append(entry)
	if err != nil {
		// Per-message failure: log and drop, keep running.
		i.logger.Error("journal write failed",
			"sender", msg.SenderID, "day", entry.Day(), "err", err,
		)
		i.ack(msg, "Failed to save message.")
		return
	}

	i.logger.Debug("message journaled", "file", path)

	switch {
	case failed > 0:
		i.ack(msg, fmt.Sprintf("Message saved, but %d attachment(s) failed.", failed))
	case len(refs) > 0:
		i.ack(msg, fmt.Sprintf("Message and %d attachment(s) saved!", len(refs)))
	default:
		i.ack(msg, "Message saved!")
	}
}

func (i *Ingestor) ack(msg domain.Message, text string) {
	i.bus.Ack(domain.Ack{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Text:    text,
	})
}
