package domain

import "time"

// Message is one inbound chat message to be written to the journal.
type Message struct {
	Channel     string
	ChatID      string
	SenderID    string
	Sender      string // display name used in the journal entry
	Text        string
	Attachments []Attachment
	Timestamp   time.Time // platform timestamp; zero means receipt time
}

// Attachment references a file carried by a message. URL is the platform's
// direct download link and is only valid while the message is being handled.
type Attachment struct {
	Kind string // "photo" | "document"
	Name string // original filename; empty for photos
	URL  string
}

// Ack is the receipt sent back to the chat after a message was handled.
type Ack struct {
	Channel string
	ChatID  string
	Text    string
}
