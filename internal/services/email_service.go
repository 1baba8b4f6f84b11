package services

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendVerificationCode(email, name, code string) error
	SendRecoveryCode(email, name, code string) error
	SendWelcomeEmail(email, name string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
	dryRun bool
}

// NewEmailService: dryRun — режим разработки, письма не уходят, код пишется в
// лог (как делал исходный сервер без EMAIL_MODE=production).
func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string, dryRun bool) EmailService {
	return &emailService{
		dialer: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   fromEmail,
		dryRun: dryRun,
	}
}

func (s *emailService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return s.dialer.DialAndSend(m)
}

func (s *emailService) SendVerificationCode(email, name, code string) error {
	if s.dryRun {
		log.Printf("[email][dev] verification code for %s: %s", email, code)
		return nil
	}
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h2 style="color: #0D9488;">Welcome to Malinoise, %s!</h2>
			<p>Your verification code is:</p>
			<div style="background: #f0f9ff; padding: 20px; text-align: center; margin: 20px 0;">
				<h1 style="color: #0D9488; font-size: 32px; letter-spacing: 3px; margin: 0;">%s</h1>
			</div>
			<p>This code expires in 10 minutes.</p>
			<p>If you did not request this code, you can ignore this email.</p>
		</div>
	`, name, code)

	if err := s.send(email, "Verification Code - Malinoise", body); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

func (s *emailService) SendRecoveryCode(email, name, code string) error {
	if s.dryRun {
		log.Printf("[email][dev] recovery code for %s: %s", email, code)
		return nil
	}
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h2 style="color: #0D9488;">Password Recovery - Malinoise</h2>
			<p>Hello %s,</p>
			<p>Your recovery code is: <strong style="font-size: 24px; color: #0D9488;">%s</strong></p>
			<p>Enter this code to reset your password. It expires in 30 minutes.</p>
			<p>If you did not request a password reset, you can ignore this email.</p>
		</div>
	`, name, code)

	if err := s.send(email, "Recovery Code - Malinoise", body); err != nil {
		return fmt.Errorf("failed to send recovery email: %w", err)
	}
	return nil
}

func (s *emailService) SendWelcomeEmail(email, name string) error {
	if s.dryRun {
		log.Printf("[email][dev] welcome email for %s", email)
		return nil
	}
	body := fmt.Sprintf(`
		<h2>Welcome to Malinoise, %s!</h2>
		<p>Your account has been verified successfully.</p>
		<p>Best regards,<br>The Malinoise Team</p>
	`, name)

	if err := s.send(email, "Welcome to Malinoise!", body); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}
