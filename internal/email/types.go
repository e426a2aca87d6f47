package email

import "time"

// Message is one fetched email with its decoded bodies and attachment
// payloads.
type Message struct {
	UID       uint32
	MessageID string

	// Sender keeps the full header form, e.g. `"Acme Corp" <billing@acme.com>`,
	// so downstream vendor resolution can use both parts.
	Sender  string
	Subject string
	Date    time.Time

	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}

// Attachment is one downloaded attachment. Data is empty when the part
// exceeded the configured size cap.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SearchFilter narrows the mailbox search. Zero values mean "no bound".
type SearchFilter struct {
	Since    time.Time
	Before   time.Time
	Keywords []string
	Limit    int
}
