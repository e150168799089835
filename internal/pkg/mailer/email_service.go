package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendTemporaryPassword(toEmail, fullName, tempPassword string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	clientURL   string
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName, clientURL string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: senderEmail,
		senderName:  senderName,
		clientURL:   clientURL,
	}
}

// SendTemporaryPassword mails the credentials of an admin-created account.
// The user is expected to change the password after first login.
func (s *emailService) SendTemporaryPassword(toEmail, fullName, tempPassword string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.senderEmail, s.senderName))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Sua conta no Oráculo foi criada")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Bem-vindo ao Oráculo, %s!</h2>
			<p>Um administrador criou uma conta para você. Sua senha temporária é:</p>
			<h1 style="color: #4CAF50; letter-spacing: 3px;">%s</h1>
			<p>Acesse a plataforma e troque a senha no primeiro login:</p>
			<p><a href="%s">%s</a></p>
			<p>Se você não esperava este e-mail, ignore-o.</p>
		</div>
	`, fullName, tempPassword, s.clientURL, s.clientURL)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send temporary password to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Temporary password sent to %s\n", toEmail)
	return nil
}
