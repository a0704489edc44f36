package model

import (
	"net/mail"
	"strings"

	"AreYouDead/pkg/errors"
)

// Contact 紧急联系人，phone 和 email 至少有一个
type Contact struct {
	BaseModel
	Name  string `gorm:"type:varchar(64);not null" json:"name"`
	Phone string `gorm:"type:varchar(32);not null;default:''" json:"phone,omitempty"`
	Email string `gorm:"type:varchar(254);not null;default:''" json:"email,omitempty"`
}

// TableName 指定表名
func (Contact) TableName() string {
	return "contacts"
}

func (c Contact) HasPhone() bool {
	return strings.TrimSpace(c.Phone) != ""
}

func (c Contact) HasEmail() bool {
	return strings.TrimSpace(c.Email) != ""
}

// Validate 校验联系人是否可达
func (c Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.ContactNameRequired
	}
	if !c.HasPhone() && !c.HasEmail() {
		return errors.ContactUnreachable
	}
	if c.HasPhone() && !validPhone(c.Phone) {
		return errors.ContactPhoneInvalid
	}
	if c.HasEmail() {
		if _, err := mail.ParseAddress(strings.TrimSpace(c.Email)); err != nil {
			return errors.Wrap(errors.ContactEmailInvalid, err)
		}
	}
	return nil
}

// validPhone 允许常见分隔符，数字位数 7~15（E.164 上限）
func validPhone(phone string) bool {
	digits := 0
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return digits >= 7 && digits <= 15
}
