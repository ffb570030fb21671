package channel

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func okResolver(fileID string) (string, error) {
	return "https://files.example/" + fileID, nil
}

func failResolver(string) (string, error) {
	return "", errors.New("file not found")
}

func baseMessage() *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: 7, UserName: "alice", FirstName: "Alice"},
		Chat: &tgbotapi.Chat{ID: 42},
		Date: int(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC).Unix()),
	}
}

func TestNewInboundMessage_Text(t *testing.T) {
	msg := baseMessage()
	msg.Text = "Hello"

	got, failures, ok := newInboundMessage(msg, okResolver)
	if !ok {
		t.Fatal("expected a message")
	}
	if len(failures) != 0 {
		t.Errorf("unexpected failures: %v", failures)
	}
	if got.Text != "Hello" {
		t.Errorf("text = %q", got.Text)
	}
	if got.ChatID != "42" || got.SenderID != "7" || got.Sender != "alice" {
		t.Errorf("identity fields: %+v", got)
	}
	if !got.Timestamp.Equal(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v", got.Timestamp)
	}
	if len(got.Attachments) != 0 {
		t.Errorf("unexpected attachments: %v", got.Attachments)
	}
}

func TestNewInboundMessage_PhotoWithCaption(t *testing.T) {
	msg := baseMessage()
	msg.Caption = "look at this"
	msg.Photo = []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}}

	got, _, ok := newInboundMessage(msg, okResolver)
	if !ok {
		t.Fatal("expected a message")
	}
	if got.Text != "look at this" {
		t.Errorf("caption not used as text: %q", got.Text)
	}
	if len(got.Attachments) != 1 {
		t.Fatalf("attachments = %v", got.Attachments)
	}
	// The last photo size is the largest; that's the one to keep.
	if !strings.HasSuffix(got.Attachments[0].URL, "/large") {
		t.Errorf("wrong photo size picked: %q", got.Attachments[0].URL)
	}
	if got.Attachments[0].Kind != "photo" || got.Attachments[0].Name != "" {
		t.Errorf("attachment = %+v", got.Attachments[0])
	}
}

func TestNewInboundMessage_Document(t *testing.T) {
	msg := baseMessage()
	msg.Document = &tgbotapi.Document{FileID: "doc1", FileName: "report.pdf"}

	got, _, ok := newInboundMessage(msg, okResolver)
	if !ok {
		t.Fatal("expected a message")
	}
	if len(got.Attachments) != 1 {
		t.Fatalf("attachments = %v", got.Attachments)
	}
	att := got.Attachments[0]
	if att.Kind != "document" || att.Name != "report.pdf" {
		t.Errorf("attachment = %+v", att)
	}
}

func TestNewInboundMessage_EmptyUpdate(t *testing.T) {
	if _, _, ok := newInboundMessage(baseMessage(), okResolver); ok {
		t.Fatal("empty message should be skipped")
	}
}

func TestNewInboundMessage_ResolveFailureWithText(t *testing.T) {
	msg := baseMessage()
	msg.Text = "text stays"
	msg.Photo = []tgbotapi.PhotoSize{{FileID: "p"}}

	got, failures, ok := newInboundMessage(msg, failResolver)
	if !ok {
		t.Fatal("message with text should survive a resolve failure")
	}
	if len(got.Attachments) != 0 {
		t.Errorf("unresolvable attachment kept: %v", got.Attachments)
	}
	if len(failures) != 1 || failures[0].kind != "photo" || failures[0].err == nil {
		t.Errorf("failures = %v, want one reported photo failure", failures)
	}
}

func TestNewInboundMessage_ResolveFailureOnly(t *testing.T) {
	msg := baseMessage()
	msg.Document = &tgbotapi.Document{FileID: "big", FileName: "huge.zip"}

	_, failures, ok := newInboundMessage(msg, failResolver)
	if ok {
		t.Fatal("nothing journalable should skip the message")
	}
	// The caller needs the failure to log it and tell the sender; a
	// silent empty return would make the whole message vanish.
	if len(failures) != 1 || failures[0].kind != "document" || failures[0].err == nil {
		t.Errorf("failures = %v, want one reported document failure", failures)
	}
}

func TestSenderName_FallbackToFirstName(t *testing.T) {
	u := &tgbotapi.User{FirstName: "Alice"}
	if got := senderName(u); got != "Alice" {
		t.Errorf("got %q", got)
	}
	u.UserName = "alice42"
	if got := senderName(u); got != "alice42" {
		t.Errorf("got %q", got)
	}
}

func TestIsAllowed(t *testing.T) {
	open := &Telegram{}
	if !open.isAllowed(99) {
		t.Error("empty allow list should allow everyone")
	}

	restricted := &Telegram{allowFrom: []int64{1, 2}}
	if !restricted.isAllowed(2) {
		t.Error("listed user should be allowed")
	}
	if restricted.isAllowed(3) {
		t.Error("unlisted user should be denied")
	}
}

func TestSplitMessage_Short(t *testing.T) {
	chunks := splitMessage("hello", 100)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Errorf("chunks = %v", chunks)
	}
}

func TestSplitMessage_CutsAtNewline(t *testing.T) {
	text := strings.Repeat("a", 80) + "\n" + strings.Repeat("b", 80)
	chunks := splitMessage(text, 100)
	if len(chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], "a") {
		t.Errorf("first chunk should end before the newline: %q", chunks[0])
	}
}

func TestSplitMessage_NoBoundary(t *testing.T) {
	text := strings.Repeat("x", 250)
	chunks := splitMessage(text, 100)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	total := 0
	for i, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunk %d too long: %d", i, len(c))
		}
		total += len(c)
	}
	if total != 250 {
		t.Errorf("content lost: %d bytes", total)
	}
}

func TestNewTelegram_ParsesAllowFrom(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ch := NewTelegram(TelegramConfig{
		Token:     "t",
		AllowFrom: []string{" 1 ", "2", "not-a-number"},
		Logger:    logger,
	})
	want := fmt.Sprint([]int64{1, 2})
	if got := fmt.Sprint(ch.allowFrom); got != want {
		t.Errorf("allowFrom = %v, want %v", got, want)
	}
	// A typo'd ID must not shrink the allow list silently.
	if !strings.Contains(buf.String(), "not-a-number") {
		t.Errorf("skipped entry not logged:\n%s", buf.String())
	}
}
