package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"AreYouDead/internal/model/dto"
	"AreYouDead/internal/policy"
	"AreYouDead/internal/service"
	"AreYouDead/pkg/errors"
	"AreYouDead/pkg/response"
)

func (h *Handlers) statusData(s policy.Summary) dto.CheckInStatusData {
	return dto.CheckInStatusData{
		Status:          string(s.Status),
		LastCheckIn:     s.LastCheckIn,
		LastCheckInText: service.FormatLastCheckIn(s.LastCheckIn, h.loc),
		NextDeadline:    s.NextDeadline,
		GraceDeadline:   s.GraceDeadline,
		Enabled:         s.Enabled,
	}
}

// GetStatus 首页状态
// GET /v1/status
func (h *Handlers) GetStatus(ctx context.Context, c *app.RequestContext) {
	summary, err := h.checkIns.Status(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, h.statusData(summary))
}

// CompleteCheckIn 打卡；打卡已记录但重新调度失败时仍返回成功，并在 meta 中带上警告
// POST /v1/check-ins
func (h *Handlers) CompleteCheckIn(ctx context.Context, c *app.RequestContext) {
	var req dto.CompleteCheckInRequest
	if len(c.Request.Body()) > 0 {
		if err := c.BindJSON(&req); err != nil {
			response.BindError(ctx, c, err)
			return
		}
	}

	record, err := h.checkIns.CheckIn(ctx, req.Source)
	if record == nil {
		response.Error(ctx, c, err)
		return
	}
	var meta map[string]interface{}
	if err != nil {
		meta = map[string]interface{}{"warning": warningOf(err)}
	}

	data := dto.CompleteCheckInResponse{
		ID:          record.ID,
		CompletedAt: record.Timestamp,
	}
	if summary, statusErr := h.checkIns.Status(ctx); statusErr == nil {
		data.Status = string(summary.Status)
		data.NextDeadline = summary.NextDeadline
	}

	if meta != nil {
		response.SuccessWithMeta(ctx, c, data, meta)
		return
	}
	response.Success(ctx, c, data)
}

func warningOf(err error) string {
	if def, ok := errors.As(err); ok {
		return def.Code
	}
	return errors.Internal.Code
}

// GetCheckInHistory 最近的打卡记录
// GET /v1/check-ins?days=30&limit=100
func (h *Handlers) GetCheckInHistory(ctx context.Context, c *app.RequestContext) {
	var q dto.CheckInHistoryQuery
	if err := c.BindQuery(&q); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	records, err := h.checkIns.History(ctx, q.Days, q.Limit)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	items := make([]dto.CheckInItem, 0, len(records))
	for _, r := range records {
		items = append(items, dto.CheckInItem{
			ID:        r.ID,
			Timestamp: r.Timestamp.In(h.loc),
			Source:    r.Source,
		})
	}
	response.SuccessWithMeta(ctx, c, items, map[string]interface{}{"count": len(items)})
}
