package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/neonclub/neon-api/internal/config"
	"github.com/neonclub/neon-api/internal/constants"
	"github.com/neonclub/neon-api/internal/models"
	"github.com/neonclub/neon-api/internal/repository"
)

// Email sending errors, distinct from the shared sentinels so the worker
// can tell "not configured" from a transport failure.
var (
	ErrEmailDisabled      = fmt.Errorf("email sending disabled")
	ErrEmailNotConfigured = fmt.Errorf("email host not configured")
	ErrInvalidEmail       = fmt.Errorf("invalid email address")
)

// NotificationService delivers engine notifications over SMTP. Deliveries
// run in the worker after the triggering state has committed, so a send
// failure never rolls anything back.
type NotificationService struct {
	cfg             *config.EmailConfig
	distributorRepo repository.DistributorRepository
	payoutRepo      repository.PayoutRepository
}

// NewNotificationService creates the notification service.
func NewNotificationService(cfg *config.EmailConfig, distributorRepo repository.DistributorRepository, payoutRepo repository.PayoutRepository) *NotificationService {
	return &NotificationService{
		cfg:             cfg,
		distributorRepo: distributorRepo,
		payoutRepo:      payoutRepo,
	}
}

// NotificationInput is one notification to deliver.
type NotificationInput struct {
	Kind          string
	DistributorID uint
	RefID         uint
	PeriodKey     string
	Detail        string
}

// Deliver builds and sends the notification email for one engine event.
func (s *NotificationService) Deliver(input NotificationInput) error {
	distributor, err := s.distributorRepo.GetByID(input.DistributorID)
	if err != nil {
		return err
	}
	if distributor == nil {
		return ErrNotFound
	}
	subject, body, err := s.buildContent(input, distributor)
	if err != nil {
		return err
	}
	return s.sendTextEmail(distributor.Email, subject, body)
}

func (s *NotificationService) buildContent(input NotificationInput, d *models.Distributor) (string, string, error) {
	switch input.Kind {
	case constants.NotificationRankChanged:
		subject := "Your rank has changed"
		body := fmt.Sprintf("Hi %s,\n\nCongratulations, you now hold the rank %s.\n\nNeon Energy Club", d.Code, input.Detail)
		return subject, body, nil
	case constants.NotificationPayoutCompleted:
		payout, err := s.payoutRepo.GetByID(input.RefID)
		if err != nil {
			return "", "", err
		}
		if payout == nil {
			return "", "", ErrPayoutNotFound
		}
		subject := "Your payout has been sent"
		body := fmt.Sprintf("Hi %s,\n\nYour payout of %s (fee %s, net %s) via %s has been completed.\n\nNeon Energy Club",
			d.Code, payout.AmountCents, payout.FeeCents, payout.NetCents, payout.Method)
		return subject, body, nil
	case constants.NotificationPayoutFailed:
		subject := "Your payout could not be processed"
		body := fmt.Sprintf("Hi %s,\n\nYour payout request could not be processed: %s.\nIt can be retried from your dashboard.\n\nNeon Energy Club", d.Code, input.Detail)
		return subject, body, nil
	case constants.NotificationFreeReward:
		subject := "You earned a free case"
		body := fmt.Sprintf("Hi %s,\n\nYou reached three qualifying autoship enrollments in %s and earned a free case. It ships with your next autoship order.\n\nNeon Energy Club", d.Code, input.PeriodKey)
		return subject, body, nil
	default:
		return "", "", fmt.Errorf("unknown notification kind %q", input.Kind)
	}
}

func (s *NotificationService) sendTextEmail(toEmail, subject, body string) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}

	from := buildFromAddress(s.cfg.From, s.cfg.FromName)
	msg := buildEmailMessage(from, toEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" || s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if s.cfg.UseTLS {
		return sendMailWithStartTLS(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))
	}
	return sendMailPlain(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}

func sendMailWithStartTLS(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}
	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}
	return sendSMTPData(client, from, to, msg)
}

func sendMailPlain(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}
	return sendSMTPData(client, from, to, msg)
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
