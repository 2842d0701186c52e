package mail

import "context"

// Attachment is a file carried inline with a message.
type Attachment struct {
	Name  string
	Bytes []byte
}

// Message is one outbound email.
type Message struct {
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Sender port (delivery collaborator). Best effort, fire and forget;
// callers log failures and move on.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
