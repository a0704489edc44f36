package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"AreYouDead/internal/model"
	"AreYouDead/internal/model/dto"
	"AreYouDead/internal/service"
	"AreYouDead/pkg/response"
)

func (h *Handlers) settingsData(cfg model.ScheduleConfig) dto.SettingsData {
	data := service.ToSettingsData(cfg)
	if h.scheduler != nil {
		data.ScheduleState = string(h.scheduler.State())
	}
	return data
}

// GetSettings 当前设置
// GET /v1/settings
func (h *Handlers) GetSettings(ctx context.Context, c *app.RequestContext) {
	cfg, err := h.settings.Get(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, h.settingsData(cfg))
}

// UpdateSettings 部分更新设置，时间相关字段变化时同步重新调度
// PUT /v1/settings
func (h *Handlers) UpdateSettings(ctx context.Context, c *app.RequestContext) {
	var req dto.UpdateSettingsRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	cfg, err := h.settings.Update(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, h.settingsData(cfg))
}
