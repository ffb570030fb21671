// Package journal writes chat messages as markdown entries to one file per
// calendar day, saving attachments beside the journal and referencing them
// by relative path.
package journal

import (
	"fmt"
	"strings"
	"time"
)

// Ref is a saved attachment referenced from an entry.
type Ref struct {
	Kind  string // "photo" | "document"
	Label string // link text; the stored filename for documents
	Path  string // relative path from the journal directory, forward slashes
}

// Entry is one journal record: a timestamp marker, the sender, the message
// text, and references to any saved attachments.
type Entry struct {
	Time   time.Time
	Sender string
	Text   string
	Refs   []Ref
}

// Day returns the calendar date the entry belongs to, e.g. "2024-01-01".
func (e Entry) Day() string {
	return e.Time.Format("2006-01-02")
}

// Markdown renders the entry as a markdown block. The block has no leading
// newline; the writer separates consecutive entries.
func (e Entry) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s:", e.Time.Format("15:04:05"), e.Sender)
	if e.Text != "" {
		b.WriteString(" ")
		b.WriteString(e.Text)
	}
	b.WriteString("\n")

	if len(e.Refs) > 0 {
		b.WriteString("\n")
		for _, r := range e.Refs {
			if r.Kind == "photo" {
				fmt.Fprintf(&b, "![%s](%s)\n", r.Label, r.Path)
			} else {
				fmt.Fprintf(&b, "[%s](%s)\n", r.Label, r.Path)
			}
		}
	}

	return b.String()
}
