package services

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/diewo77/ca-practice/internal/config"
	"github.com/diewo77/ca-practice/internal/models"
	"go.uber.org/zap"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier emails reminders through an SMTP relay.
type SMTPNotifier struct {
	addr string
	auth smtp.Auth
	from mail.Address
	log  *zap.Logger
	send sendMailFunc
}

func NewSMTPNotifier(cfg config.MailConfig, log *zap.Logger) *SMTPNotifier {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPNotifier{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth: auth,
		from: mail.Address{Name: cfg.FromName, Address: cfg.From},
		log:  log,
		send: smtp.SendMail,
	}
}

// NewNotifier picks the reminder channel named by cfg.Provider.
func NewNotifier(cfg config.MailConfig, log *zap.Logger) Notifier {
	if cfg.Provider == config.MailSMTP {
		return NewSMTPNotifier(cfg, log)
	}
	return LogNotifier{Log: log}
}

func (n *SMTPNotifier) DeadlineReminder(ctx context.Context, to string, task models.Task, daysAhead int) error {
	subject := fmt.Sprintf("[%s] Deadline Reminder: %s", task.Priority, task.Title)
	var body bytes.Buffer
	fmt.Fprintf(&body, "Hello,\r\n\r\nThis is a reminder for an upcoming deadline:\r\n\r\n%s\r\n", task.Title)
	fmt.Fprintf(&body, "Priority: %s\r\nDeadline: %s (%d days)\r\n\r\n", task.Priority, task.DueDate.Format("January 02, 2006 at 03:04 PM"), daysAhead)
	body.WriteString("Please ensure this task is completed by the deadline.\r\n")
	return n.deliver(ctx, to, subject, body.Bytes())
}

func (n *SMTPNotifier) QueryReminder(ctx context.Context, to string, q models.Query) error {
	subject := fmt.Sprintf("Reminder: pending query (%d)", q.RemindersSent+1)
	var body bytes.Buffer
	fmt.Fprintf(&body, "Hello,\r\n\r\nWe are still waiting for your response to:\r\n\r\n%s\r\n\r\nRaised by %s.\r\n", q.QueryText, q.RaisedBy)
	return n.deliver(ctx, to, subject, body.Bytes())
}

func (n *SMTPNotifier) deliver(ctx context.Context, to, subject string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rcpt, err := mail.ParseAddress(to)
	if err != nil {
		return fmt.Errorf("recipient %q: %w", to, err)
	}
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", n.from.String())
	fmt.Fprintf(&msg, "To: %s\r\n", rcpt.String())
	fmt.Fprintf(&msg, "Subject: %s\r\n", mimeHeader(subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.Write(body)

	if err := n.send(n.addr, n.auth, n.from.Address, []string{rcpt.Address}, msg.Bytes()); err != nil {
		return fmt.Errorf("send mail to %s: %w", rcpt.Address, err)
	}
	n.log.Info("mail sent", zap.String("to", rcpt.Address), zap.String("subject", subject))
	return nil
}

func mimeHeader(s string) string {
	return mime.QEncoding.Encode("utf-8", s)
}
