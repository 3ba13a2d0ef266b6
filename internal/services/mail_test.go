package services

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/ca-practice/internal/config"
	"github.com/diewo77/ca-practice/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func testSMTP(t *testing.T, fail error) (*SMTPNotifier, *[]sentMail) {
	t.Helper()
	n := NewSMTPNotifier(config.MailConfig{
		Provider: config.MailSMTP,
		Host:     "smtp.example",
		Port:     2525,
		From:     "noreply@practice.example",
		FromName: "CA Practice",
	}, zap.NewNop())
	var sent []sentMail
	n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
		return fail
	}
	return n, &sent
}

func TestSMTPNotifierDeadlineReminder(t *testing.T) {
	n, sent := testSMTP(t, nil)
	task := models.Task{
		Title:    "GSTR-3B Filing - June 2025",
		Priority: models.PriorityHigh,
		DueDate:  time.Date(2025, time.July, 20, 23, 59, 0, 0, time.UTC),
	}
	require.NoError(t, n.DeadlineReminder(context.Background(), "Accounts <accounts@acme.example>", task, 3))
	require.Len(t, *sent, 1)
	m := (*sent)[0]
	assert.Equal(t, "smtp.example:2525", m.addr)
	assert.Equal(t, "noreply@practice.example", m.from)
	assert.Equal(t, []string{"accounts@acme.example"}, m.to)
	assert.Contains(t, m.msg, "Subject: [HIGH] Deadline Reminder: GSTR-3B Filing - June 2025\r\n")
	assert.Contains(t, m.msg, `From: "CA Practice" <noreply@practice.example>`)
	assert.Contains(t, m.msg, "Deadline: July 20, 2025 at 11:59 PM (3 days)")
}

func TestSMTPNotifierErrors(t *testing.T) {
	n, sent := testSMTP(t, errors.New("relay refused"))
	err := n.QueryReminder(context.Background(), "client@acme.example", models.Query{QueryText: "Send bank statements", RaisedBy: "Asha"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "relay refused"))
	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0].msg, "Send bank statements")

	err = n.QueryReminder(context.Background(), "not an address", models.Query{})
	assert.Error(t, err)
	assert.Len(t, *sent, 1, "invalid recipients are not sent")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.QueryReminder(ctx, "client@acme.example", models.Query{}), context.Canceled)
}

func TestNewNotifier(t *testing.T) {
	_, ok := NewNotifier(config.MailConfig{}, zap.NewNop()).(LogNotifier)
	assert.True(t, ok)
	_, ok = NewNotifier(config.MailConfig{Provider: config.MailSMTP, Host: "h", Port: 25}, zap.NewNop()).(*SMTPNotifier)
	assert.True(t, ok)
}
