package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"

	"github.com/bibbank/mfi-repayment/internal/application/dto"
	"github.com/bibbank/mfi-repayment/internal/domain/port"
)

var _ port.Notifier = (*EmailNotifier)(nil)

// SMTPConfig holds outgoing mail settings.
type SMTPConfig struct {
	Addr     string // host:port
	Host     string
	Username string
	Password string
	From     string
}

// sendFunc matches (*email.Email).Send.
type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// EmailNotifier sends borrower notices over SMTP.
type EmailNotifier struct {
	cfg    SMTPConfig
	auth   smtp.Auth
	send   sendFunc
	logger *slog.Logger
}

// NewEmailNotifier creates a notifier. Authentication is skipped when no
// username is configured.
func NewEmailNotifier(cfg SMTPConfig, logger *slog.Logger) *EmailNotifier {
	n := &EmailNotifier{
		cfg:    cfg,
		send:   func(e *email.Email, addr string, a smtp.Auth) error { return e.Send(addr, a) },
		logger: logger,
	}
	if cfg.Username != "" {
		n.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return n
}

// Notify renders and sends n.
func (s *EmailNotifier) Notify(ctx context.Context, n port.Notification) error {
	if n.Recipient == "" {
		return errors.New("notification has no recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject, body, err := render(n)
	if err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = []string{n.Recipient}
	e.Subject = subject
	e.Text = []byte(body)

	if err := s.send(e, s.cfg.Addr, s.auth); err != nil {
		return fmt.Errorf("send %s email to %s: %w", n.Kind, n.Recipient, err)
	}

	s.logger.Info("email sent", "kind", n.Kind, "loan_id", n.LoanID, "emi_no", n.EmiNo)
	return nil
}

func render(n port.Notification) (subject, body string, err error) {
	name := n.RecipientName
	if name == "" {
		name = "Borrower"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", name)

	switch n.Kind {
	case port.NotificationInstallmentPaid:
		subject = fmt.Sprintf("Payment received for loan %s", n.LoanID)
		fmt.Fprintf(&b, "We have received %s towards installment %d of loan %s.\n", n.Amount.StringFixed(2), n.EmiNo, n.LoanID)
		if n.ReceiptNumber != "" {
			fmt.Fprintf(&b, "Receipt number: %s\n", n.ReceiptNumber)
		}
	case port.NotificationOverdue:
		subject = fmt.Sprintf("Installment %d of loan %s is overdue", n.EmiNo, n.LoanID)
		fmt.Fprintf(&b, "Installment %d of loan %s for %s was due on %s and is %d day(s) overdue.\n",
			n.EmiNo, n.LoanID, n.Amount.StringFixed(2), n.DueDate.Format(dto.DateLayout), n.DaysOverdue)
		if n.Penalty.IsPositive() {
			fmt.Fprintf(&b, "A late payment penalty of %s currently applies.\n", n.Penalty.StringFixed(2))
		}
		b.WriteString("Please pay as soon as possible to avoid further penalties.\n")
	case port.NotificationLoanCompleted:
		subject = fmt.Sprintf("Loan %s fully repaid", n.LoanID)
		fmt.Fprintf(&b, "All installments of loan %s have been paid. Thank you.\n", n.LoanID)
	default:
		return "", "", fmt.Errorf("unknown notification kind %q", n.Kind)
	}

	b.WriteString("\nRegards,\nCollections Team\n")
	return subject, b.String(), nil
}
