package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"AreYouDead/internal/model/dto"
	"AreYouDead/pkg/response"
)

// ListContacts 紧急联系人列表
// GET /v1/contacts
func (h *Handlers) ListContacts(ctx context.Context, c *app.RequestContext) {
	items, err := h.contacts.ListContacts(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, items)
}

// CreateContact 新增紧急联系人
// POST /v1/contacts
func (h *Handlers) CreateContact(ctx context.Context, c *app.RequestContext) {
	var req dto.CreateContactRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	item, err := h.contacts.CreateContact(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Created(ctx, c, item)
}

// UpdateContact 修改紧急联系人
// PUT /v1/contacts/:id
func (h *Handlers) UpdateContact(ctx context.Context, c *app.RequestContext) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	var req dto.UpdateContactRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	item, err := h.contacts.UpdateContact(ctx, id, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, item)
}

// DeleteContact 删除紧急联系人
// DELETE /v1/contacts/:id
func (h *Handlers) DeleteContact(ctx context.Context, c *app.RequestContext) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	if err := h.contacts.DeleteContact(ctx, id); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}
