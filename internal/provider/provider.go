package provider

import "context"

// MailTransport is the outbound email delivery port. Implementations own
// their connection lifecycle; the dispatcher never shares a transport session
// across concurrent sends.
type MailTransport interface {
	Send(ctx context.Context, message EmailMessage) error
}

// EmailMessage is one fully instrumented message ready for transmission.
type EmailMessage struct {
	FromEmail string
	FromName  string
	To        string
	ReplyTo   string
	Subject   string
	HTMLBody  string
	TextBody  string
}
