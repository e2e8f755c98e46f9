package tools

import (
	"context"
	"fmt"
	"strings"

	"voxd/internal/fault"
	"voxd/internal/intent"
)

const (
	latestMailCount = 3
	defaultSubject  = "Message from your voice assistant"
)

type Email struct {
	Reader MailReader
}

func (Email) Name() string { return NameEmail }

func (Email) Failure() string {
	return "Sorry, I couldn't check your email right now."
}

func (e Email) Invoke(ctx context.Context, _ intent.Params) (string, error) {
	if e.Reader == nil {
		return "", fault.NotConfigured("email")
	}

	mails, err := e.Reader.Latest(ctx, latestMailCount)
	if err != nil {
		return "", fmt.Errorf("latest mail: %w", err)
	}
	if len(mails) == 0 {
		return "You have no recent emails.", nil
	}

	var b strings.Builder
	if len(mails) == 1 {
		b.WriteString("Here is your latest email.")
	} else {
		fmt.Fprintf(&b, "Here are your latest %d emails.", len(mails))
	}
	for _, m := range mails {
		subject := m.Subject
		if subject == "" {
			subject = "no subject"
		}
		fmt.Fprintf(&b, " From %s: %s.", m.From, strings.TrimRight(subject, ". "))
	}
	return b.String(), nil
}

type SendEmail struct {
	Sender MailSender
}

func (SendEmail) Name() string { return NameSendEmail }

func (SendEmail) Failure() string {
	return "Sorry, I couldn't send that email."
}

func (s SendEmail) Invoke(ctx context.Context, p intent.Params) (string, error) {
	if s.Sender == nil {
		return "", fault.NotConfigured("email sending")
	}

	to, ok := p.String(intent.ParamRecipient)
	if !ok || !strings.Contains(to, "@") {
		return "I need an email address to send that to.", nil
	}

	subject := p.StringOr(intent.ParamSubject, defaultSubject)
	body := p.StringOr(intent.ParamBody, subject)

	if err := s.Sender.Send(ctx, to, subject, body); err != nil {
		return "", fmt.Errorf("send to %s: %w", to, err)
	}
	return fmt.Sprintf("Email sent to %s.", to), nil
}
