package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/shenikar/civic_alerts/internal/config"
	"github.com/shenikar/civic_alerts/internal/email"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=contact.go -destination=mocks/mock_contact.go -package=mocks

const maxContactMessageLength = 2000

// ContactService пересылает алерт в ответственную городскую службу
type ContactService interface {
	ContactAuthority(ctx context.Context, alertID, message, replyTo string) error
}

type contactService struct {
	alerts    AlertService
	sender    email.Sender
	logger    *logrus.Logger
	from      string
	authority string
}

func NewContactService(alerts AlertService, sender email.Sender, logger *logrus.Logger, cfg *config.Config) ContactService {
	return &contactService{
		alerts:    alerts,
		sender:    sender,
		logger:    logger,
		from:      cfg.MailFrom,
		authority: cfg.AuthorityEmail,
	}
}

func (s *contactService) ContactAuthority(ctx context.Context, alertID, message, replyTo string) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "contact",
		"method":   "ContactAuthority",
		"alert_id": alertID,
	})

	if s.authority == "" {
		log.Warn("AUTHORITY_EMAIL is not set, contact request rejected")
		return fmt.Errorf("service: authority email: %w", ErrNotConfigured)
	}
	if len(message) > maxContactMessageLength {
		return newValidationError("message", "must be at most %d characters", maxContactMessageLength)
	}
	replyTo, err := normalizeReplyTo(replyTo)
	if err != nil {
		return err
	}

	alert, err := s.alerts.GetAlert(ctx, alertID)
	if err != nil {
		return err
	}

	subject, html, text, err := email.RenderAuthorityContactEmail(email.AuthorityContactData{
		AlertID:     alert.ID,
		IssueType:   string(alert.IssueType),
		Status:      string(alert.Status),
		Location:    alert.Location,
		Description: alert.Description,
		Message:     strings.TrimSpace(message),
		Images:      alert.Images,
		ReportedAt:  alert.Timestamp,
	})
	if err != nil {
		log.WithError(err).Error("Failed to render authority email")
		return fmt.Errorf("service: could not render authority email: %w", err)
	}

	if err := s.sender.Send(ctx, email.Message{
		From:    s.from,
		To:      s.authority,
		ReplyTo: replyTo,
		Subject: subject,
		HTML:    html,
		Text:    text,
	}); err != nil {
		log.WithError(err).Error("Failed to send authority email")
		return fmt.Errorf("service: could not contact authority: %w", err)
	}

	log.Info("Authority contacted successfully")
	return nil
}

// normalizeReplyTo оставляет только адрес: имя и переводы строк в заголовок Reply-To не попадают
func normalizeReplyTo(replyTo string) (string, error) {
	replyTo = strings.TrimSpace(replyTo)
	if replyTo == "" {
		return "", nil
	}
	if strings.ContainsAny(replyTo, "\r\n") {
		return "", newValidationError("email", "must be a valid email address")
	}
	addr, err := mail.ParseAddress(replyTo)
	if err != nil {
		return "", newValidationError("email", "must be a valid email address")
	}
	return addr.Address, nil
}
