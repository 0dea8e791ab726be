package monitor

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
)

// Notifier delivers the end-of-run summary to an operator.
type Notifier interface {
	SendRunSummary(ctx context.Context, report Report) error
}

// EmailNotifier mails the run summary over plain smtp.
type EmailNotifier struct {
	cfg SmtpConfig
}

func NewEmailNotifier(cfg SmtpConfig) EmailNotifier {
	return EmailNotifier{cfg: cfg}
}

func (n EmailNotifier) SendRunSummary(ctx context.Context, report Report) error {
	var body strings.Builder
	fmt.Fprintf(&body, "Found %d new executive order(s).\n", report.Found)
	fmt.Fprintf(&body, "Processed: %d\n", report.Processed)
	fmt.Fprintf(&body, "Posted to Bluesky: %d\n", report.Posted)
	if len(report.Errors) > 0 {
		fmt.Fprintf(&body, "\nErrors:\n")
		for _, itemErr := range report.Errors {
			fmt.Fprintf(&body, "  - %s\n", itemErr.Error())
		}
	}

	e := email.NewEmail()
	e.From = n.cfg.From
	e.To = n.cfg.To
	e.Subject = fmt.Sprintf("executive orders monitor: %d processed, %d failed", report.Processed, len(report.Errors))
	e.Text = []byte(body.String())

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	return e.Send(addr, auth)
}
