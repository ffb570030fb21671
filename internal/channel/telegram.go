package channel

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"jotbot/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const telegramMaxMsgLen = 4000

// Telegram implements domain.Channel: it long-polls the bot API, turns
// updates into journal messages, and replies with save receipts. Reconnects
// after connection drops are handled by the bot library's update channel.
type Telegram struct {
	token       string
	allowFrom   []int64 // allowed sender IDs (empty = allow all)
	parseMode   string
	pollTimeout int

	bot    *tgbotapi.BotAPI
	bus    domain.MessageBus
	logger *slog.Logger
}

type TelegramConfig struct {
	Token       string
	AllowFrom   []string // sender IDs as strings
	ParseMode   string
	PollTimeout int // long-poll timeout in seconds
	Logger      *slog.Logger
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	var allowed []int64
	for _, s := range cfg.AllowFrom {
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			cfg.Logger.Warn("ignoring invalid allowFrom entry", "entry", s)
			continue
		}
		allowed = append(allowed, id)
	}
	if cfg.ParseMode == "" {
		cfg.ParseMode = "Markdown"
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30
	}
	return &Telegram{
		token:       cfg.Token,
		allowFrom:   allowed,
		parseMode:   cfg.ParseMode,
		pollTimeout: cfg.PollTimeout,
		logger:      cfg.Logger,
	}
}

func (t *Telegram) Name() string { return "telegram" }

// Start connects to Telegram and begins polling for updates. A failed
// connection (bad or revoked token) is returned as a fatal error.
func (t *Telegram) Start(ctx context.Context, bus domain.MessageBus) error {
	t.bus = bus

	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}
	t.bot = bot
	t.logger.Info("telegram bot connected",
		"username", bot.Self.UserName,
		"id", bot.Self.ID,
	)

	bus.OnAck("telegram", func(a domain.Ack) {
		chatID, err := strconv.ParseInt(a.ChatID, 10, 64)
		if err != nil {
			t.logger.Error("invalid chat ID for telegram ack", "chatID", a.ChatID, "err", err)
			return
		}
		t.sendMessage(chatID, a.Text)
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.pollTimeout
	updates := bot.GetUpdatesChan(u)

	t.logger.Info("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram channel stopping")
			bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(update)
		}
	}
}

// Stop is a no-op: the bot stops when Start's context is cancelled.
func (t *Telegram) Stop() error {
	return nil
}

func (t *Telegram) handleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}

	if !t.isAllowed(msg.From.ID) {
		t.logger.Warn("unauthorized telegram user",
			"user_id", msg.From.ID,
			"username", msg.From.UserName,
		)
		t.sendMessage(msg.Chat.ID, "Unauthorized. Your user ID is not in the allow list.")
		return
	}

	if msg.IsCommand() {
		t.handleCommand(msg.Chat.ID, msg)
		return
	}

	inbound, failures, ok := newInboundMessage(msg, t.bot.GetFileDirectURL)
	for _, f := range failures {
		t.logger.Error("telegram file resolve failed",
			"kind", f.kind,
			"user_id", msg.From.ID,
			"chat_id", msg.Chat.ID,
			"err", f.err,
		)
	}
	if !ok {
		// Nothing journalable survived; tell the sender instead of
		// dropping the update without a trace.
		if len(failures) > 0 {
			t.sendMessage(msg.Chat.ID, "Failed to save "+failures[0].kind+".")
		}
		return
	}

	t.logger.Info("telegram message received",
		"user_id", msg.From.ID,
		"chat_id", msg.Chat.ID,
		"text_len", len(inbound.Text),
		"attachments", len(inbound.Attachments),
	)

	t.bus.Publish(inbound)
}

// fileResolver resolves a Telegram file ID to a direct download URL.
type fileResolver func(fileID string) (string, error)

// resolveFailure records an attachment whose download URL could not be
// resolved (the bot API refuses files over 20 MB, among other causes).
type resolveFailure struct {
	kind string
	err  error
}

// newInboundMessage converts a Telegram message into a journal message.
// Attachments whose file ID cannot be resolved are reported in the second
// return value; ok is false when nothing worth journaling remains.
func newInboundMessage(msg *tgbotapi.Message, resolve fileResolver) (domain.Message, []resolveFailure, bool) {
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	var attachments []domain.Attachment
	var failures []resolveFailure
	if len(msg.Photo) > 0 {
		// The last photo size is the largest.
		photo := msg.Photo[len(msg.Photo)-1]
		if url, err := resolve(photo.FileID); err == nil {
			attachments = append(attachments, domain.Attachment{Kind: "photo", URL: url})
		} else {
			failures = append(failures, resolveFailure{kind: "photo", err: err})
		}
	}
	if msg.Document != nil {
		if url, err := resolve(msg.Document.FileID); err == nil {
			attachments = append(attachments, domain.Attachment{
				Kind: "document",
				Name: msg.Document.FileName,
				URL:  url,
			})
		} else {
			failures = append(failures, resolveFailure{kind: "document", err: err})
		}
	}

	if text == "" && len(attachments) == 0 {
		return domain.Message{}, failures, false
	}

	ts := time.Now()
	if msg.Date > 0 {
		ts = time.Unix(int64(msg.Date), 0)
	}

	return domain.Message{
		Channel:     "telegram",
		ChatID:      strconv.FormatInt(msg.Chat.ID, 10),
		SenderID:    strconv.FormatInt(msg.From.ID, 10),
		Sender:      senderName(msg.From),
		Text:        text,
		Attachments: attachments,
		Timestamp:   ts,
	}, failures, true
}

func senderName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	return u.FirstName
}

func (t *Telegram) handleCommand(chatID int64, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		t.sendMessage(chatID, "Hello! I save everything you send me to your daily markdown journal.\n\nSend text, photos, or files and I'll file them under today's date.\n\nCommands:\n/help — Show this message")
	case "help":
		t.sendMessage(chatID, "Send me any message and it is appended to today's journal file. Photos and documents are saved next to the journal and linked from the entry.")
	default:
		t.sendMessage(chatID, "Unknown command. Type /help for available commands.")
	}
}

func (t *Telegram) isAllowed(userID int64) bool {
	if len(t.allowFrom) == 0 {
		return true // Empty list = allow all
	}
	for _, id := range t.allowFrom {
		if id == userID {
			return true
		}
	}
	return false
}

func (t *Telegram) sendMessage(chatID int64, text string) {
	for _, chunk := range splitMessage(text, telegramMaxMsgLen) {
		t.sendChunk(chatID, chunk)
	}
}

// splitMessage splits text into chunks under max bytes, preferring to cut
// at a newline. Telegram rejects messages over 4096 chars.
func splitMessage(text string, max int) []string {
	var chunks []string
	for len(text) > 0 {
		chunk := text
		if len(chunk) > max {
			cutAt := strings.LastIndex(chunk[:max], "\n")
			if cutAt < max/2 {
				cutAt = max
			}
			chunk = text[:cutAt]
			text = text[cutAt:]
		} else {
			text = ""
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// sendChunk sends one message chunk. A markdown parse error falls back to
// plain text; other failures are logged and the receipt is lost.
func (t *Telegram) sendChunk(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = t.parseMode

	_, err := t.bot.Send(msg)
	if err == nil {
		return
	}

	if strings.Contains(err.Error(), "can't parse entities") {
		t.logger.Warn("telegram markdown parse error, retrying as plain text",
			"err", err, "parseMode", t.parseMode,
		)
		plain := tgbotapi.NewMessage(chatID, text)
		if _, err2 := t.bot.Send(plain); err2 == nil {
			return
		}
	}

	t.logger.Error("telegram send failed", "err", err, "chat_id", chatID)
}
