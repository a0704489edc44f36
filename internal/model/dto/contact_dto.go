package dto

import "time"

// ========== Contact 相关 DTO ==========

// ContactItem 紧急联系人项
type ContactItem struct {
	CreatedAt time.Time `json:"created_at"`
	ID        int64     `json:"id,string"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
}

// CreateContactRequest 创建联系人请求，phone 与 email 至少填一个
type CreateContactRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// UpdateContactRequest 只更新非空字段
type UpdateContactRequest struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty"`
}
