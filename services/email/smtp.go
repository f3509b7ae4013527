package email

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type SMTPService struct {
	config SMTPConfig
}

func NewSMTPService(config SMTPConfig) *SMTPService {
	if config.From == "" {
		config.From = "no-reply@sahayafoundation.org"
	}
	return &SMTPService{
		config: config,
	}
}

// auth retorna as credenciais do relay, ou nil quando o servidor não
// exige autenticação (relays locais)
func (s *SMTPService) auth() smtp.Auth {
	if s.config.Username == "" {
		return nil
	}
	return smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
}

func (s *SMTPService) SendEmail(to, subject, body string) error {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         s.config.Host,
	}

	conn, err := net.Dial("tcp", fmt.Sprintf("%s:%s", s.config.Host, s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %v", err)
	}

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %v", err)
	}
	defer client.Close()

	if err = client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %v", err)
	}

	if auth := s.auth(); auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate with SMTP server: %v", err)
		}
	}

	if err = client.Mail(s.config.From); err != nil {
		return fmt.Errorf("failed to set sender: %v", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %v", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to create email body writer: %v", err)
	}

	headers := fmt.Sprintf(
		"From: Sahaya Foundation <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n",
		s.config.From, to, subject,
	)

	if _, err = w.Write([]byte(headers + body)); err != nil {
		return fmt.Errorf("failed to write email body: %v", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close email body writer: %v", err)
	}

	return client.Quit()
}

// SendDonationReceipt envia o recibo da doação para o doador
func (s *SMTPService) SendDonationReceipt(to, name, amount, donationID string) error {
	return s.SendEmail(to, "Thank you for your donation", donationReceiptBody(name, amount, donationID))
}

// SendContactNotification repassa uma mensagem do formulário de contato
// para a caixa de entrada da equipe
func (s *SMTPService) SendContactNotification(to, name, fromEmail, subject, message string) error {
	return s.SendEmail(to, fmt.Sprintf("Contact form: %s", subject), contactNotificationBody(name, fromEmail, subject, message))
}
