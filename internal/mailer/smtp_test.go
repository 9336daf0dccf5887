package mailer

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendInDevModeLogsOnly(t *testing.T) {
	logger, hook := test.NewNullLogger()
	m := NewSMTPMailer(Config{Server: "smtp.example.com", Port: 587}, logger)

	require.True(t, m.DevMode())
	require.NoError(t, m.Send(context.Background(), "a@example.com", "Reset", "<p>hi</p>"))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "a@example.com", entry.Data["to"])
}

func TestBuildMessageHeaders(t *testing.T) {
	msg := string(buildMessage("from@example.com", "to@example.com", "Subject", "<b>body</b>"))

	assert.Contains(t, msg, "From: from@example.com\r\n")
	assert.Contains(t, msg, "To: to@example.com\r\n")
	assert.Contains(t, msg, "Content-Type: text/html")
	assert.Contains(t, msg, "\r\n\r\n<b>body</b>")
}
