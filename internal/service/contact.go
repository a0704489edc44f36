package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"AreYouDead/internal/model"
	"AreYouDead/internal/model/dto"
)

type ContactService struct {
	contacts ContactStore
	log      *zap.Logger
}

func NewContactService(contacts ContactStore, log *zap.Logger) *ContactService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ContactService{contacts: contacts, log: log}
}

func (s *ContactService) ListContacts(ctx context.Context) ([]dto.ContactItem, error) {
	contacts, err := s.contacts.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ContactItem, 0, len(contacts))
	for _, c := range contacts {
		items = append(items, toContactItem(c))
	}
	return items, nil
}

// CreateContact 校验后保存；phone 与 email 至少一个
func (s *ContactService) CreateContact(ctx context.Context, req dto.CreateContactRequest) (*dto.ContactItem, error) {
	contact := model.Contact{
		Name:  strings.TrimSpace(req.Name),
		Phone: strings.TrimSpace(req.Phone),
		Email: strings.TrimSpace(req.Email),
	}
	if err := contact.Validate(); err != nil {
		return nil, err
	}
	if err := s.contacts.Create(ctx, &contact); err != nil {
		return nil, err
	}

	s.log.Info("Contact created",
		zap.Int64("contact_id", contact.ID),
		zap.Bool("has_phone", contact.HasPhone()),
		zap.Bool("has_email", contact.HasEmail()),
	)
	item := toContactItem(contact)
	return &item, nil
}

func (s *ContactService) UpdateContact(ctx context.Context, id int64, req dto.UpdateContactRequest) (*dto.ContactItem, error) {
	contact, err := s.contacts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		contact.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		contact.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		contact.Email = strings.TrimSpace(*req.Email)
	}
	if err := contact.Validate(); err != nil {
		return nil, err
	}
	if err := s.contacts.Update(ctx, contact); err != nil {
		return nil, err
	}
	item := toContactItem(*contact)
	return &item, nil
}

func (s *ContactService) DeleteContact(ctx context.Context, id int64) error {
	if err := s.contacts.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("Contact deleted", zap.Int64("contact_id", id))
	return nil
}

func toContactItem(c model.Contact) dto.ContactItem {
	return dto.ContactItem{
		CreatedAt: c.CreatedAt,
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
	}
}
