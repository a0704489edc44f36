package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"AreYouDead/internal/model"
	"AreYouDead/pkg/errors"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// List 返回全部联系人，告警时读取最新列表走主库
func (r *ContactRepository) List(ctx context.Context) ([]model.Contact, error) {
	var contacts []model.Contact
	err := r.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Order("id ASC").
		Find(&contacts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

func (r *ContactRepository) Get(ctx context.Context, id int64) (*model.Contact, error) {
	var contacts []model.Contact
	if err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to query contact: %w", err)
	}
	if len(contacts) == 0 {
		return nil, errors.ContactNotFound
	}
	return &contacts[0], nil
}

func (r *ContactRepository) Create(ctx context.Context, contact *model.Contact) error {
	if err := r.db.WithContext(ctx).Create(contact).Error; err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

func (r *ContactRepository) Update(ctx context.Context, contact *model.Contact) error {
	result := r.db.WithContext(ctx).
		Model(&model.Contact{}).
		Where("id = ?", contact.ID).
		Updates(map[string]interface{}{
			"name":  contact.Name,
			"phone": contact.Phone,
			"email": contact.Email,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update contact: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ContactNotFound
	}
	return nil
}

// Delete 软删除
func (r *ContactRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&model.Contact{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete contact: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ContactNotFound
	}
	return nil
}
