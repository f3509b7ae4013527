package email

import (
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthUsedOnlyWhenCredentialsSet(t *testing.T) {
	withCreds := NewSMTPService(SMTPConfig{
		Host:     "smtp.example.com",
		Port:     "587",
		Username: "mailer",
		Password: "secret",
	})
	assert.NotNil(t, withCreds.auth(), "credentials in config must be presented to the server")

	// PlainAuth responde ao desafio com usuário e senha da config
	server := &smtp.ServerInfo{Name: "smtp.example.com", TLS: true}
	_, resp, err := withCreds.auth().Start(server)
	assert.NoError(t, err)
	assert.Contains(t, string(resp), "mailer")
	assert.Contains(t, string(resp), "secret")

	openRelay := NewSMTPService(SMTPConfig{Host: "localhost", Port: "25"})
	assert.Nil(t, openRelay.auth(), "an open relay gets no AUTH command")
}

func TestDefaultFromAddress(t *testing.T) {
	s := NewSMTPService(SMTPConfig{Host: "localhost", Port: "25"})
	assert.Equal(t, "no-reply@sahayafoundation.org", s.config.From)

	s = NewSMTPService(SMTPConfig{Host: "localhost", Port: "25", From: "donations@example.org"})
	assert.Equal(t, "donations@example.org", s.config.From)
}
