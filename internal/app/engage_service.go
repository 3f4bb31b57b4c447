package app

import (
	"strings"

	"savannatrails-concierge/internal/model"
	"savannatrails-concierge/internal/repository"
)

// EngageService covers the marketing site's engagement endpoints: newsletter
// signups and contact-form submissions.
type EngageService struct {
	subscriberRepo *repository.SubscriberRepository
	contactRepo    *repository.ContactRepository
}

func NewEngageService(
	subscriberRepo *repository.SubscriberRepository,
	contactRepo *repository.ContactRepository,
) *EngageService {
	return &EngageService{
		subscriberRepo: subscriberRepo,
		contactRepo:    contactRepo,
	}
}

// Subscribe records a newsletter signup; repeat signups are accepted quietly.
func (s *EngageService) Subscribe(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidInput
	}
	return s.subscriberRepo.Create(&model.Subscriber{Email: email})
}

type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Body    string
}

// SubmitContact stores a contact-form message for the support team to pick
// up. Outbound mail is handled by a separate delivery system.
func (s *EngageService) SubmitContact(input ContactInput) (*model.ContactMessage, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	body := strings.TrimSpace(input.Body)
	if name == "" || body == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidInput
	}

	msg := &model.ContactMessage{
		Name:    name,
		Email:   email,
		Subject: strings.TrimSpace(input.Subject),
		Body:    body,
	}
	if err := s.contactRepo.Create(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListContactMessages returns the newest contact-form submissions for the
// portal inbox.
func (s *EngageService) ListContactMessages(limit int) ([]model.ContactMessage, error) {
	return s.contactRepo.ListRecent(limit)
}

// ListSubscribers returns recent newsletter signups for the portal.
func (s *EngageService) ListSubscribers(limit int) ([]model.Subscriber, error) {
	return s.subscriberRepo.ListRecent(limit)
}
