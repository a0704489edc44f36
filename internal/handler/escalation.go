package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"AreYouDead/internal/model"
	"AreYouDead/internal/model/dto"
	"AreYouDead/pkg/response"
)

func toRunItem(run model.EscalationRun) dto.EscalationRunItem {
	item := dto.EscalationRunItem{
		RunCode:      run.RunCode,
		PeriodKey:    run.PeriodKey,
		Status:       string(run.Status),
		ContactCount: run.ContactCount,
		Attempted:    run.Attempted,
		Succeeded:    run.Succeeded,
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
	}
	for _, a := range run.Attempts {
		attempt := dto.AttemptItem{
			ContactID:   a.ContactID,
			ContactName: a.ContactName,
			Attempt:     string(a.Attempt),
			Channel:     string(a.Channel),
			Provider:    a.Provider,
			Status:      string(a.Status),
			AttemptedAt: a.AttemptedAt,
		}
		if a.ErrorMessage != nil {
			attempt.Error = *a.ErrorMessage
		}
		item.Attempts = append(item.Attempts, attempt)
	}
	return item
}

// ListEscalations 最近的告警记录及每条通道腿的结果
// GET /v1/escalations?limit=20
func (h *Handlers) ListEscalations(ctx context.Context, c *app.RequestContext) {
	limit := parseLimit(c.QueryArgs().Peek("limit"), 20)

	runs, err := h.escalations.ListRuns(ctx, limit)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	items := make([]dto.EscalationRunItem, 0, len(runs))
	for _, run := range runs {
		items = append(items, toRunItem(run))
	}
	response.Success(ctx, c, items)
}
