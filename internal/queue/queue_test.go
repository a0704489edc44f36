package queue

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AreYouDead/internal/model"
	"AreYouDead/pkg/errors"
	"AreYouDead/pkg/snowflake"
	"AreYouDead/storage/mq"
)

type fakeTracker struct {
	seen      map[string]string
	failCheck bool
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{seen: map[string]string{}}
}

func (f *fakeTracker) TryMarkMessageProcessing(_ context.Context, id string) (bool, error) {
	if f.failCheck {
		return false, assert.AnError
	}
	if _, ok := f.seen[id]; ok {
		return false, nil
	}
	f.seen[id] = "processing"
	return true, nil
}

func (f *fakeTracker) UnmarkMessageProcessing(_ context.Context, id string) error {
	delete(f.seen, id)
	return nil
}

func (f *fakeTracker) MarkMessageProcessed(_ context.Context, id string) error {
	f.seen[id] = "completed"
	return nil
}

type fakeEscalations struct {
	jobs []model.EscalationMessage
	err  error
}

func (f *fakeEscalations) DispatchEscalation(_ context.Context, job model.EscalationMessage) error {
	f.jobs = append(f.jobs, job)
	return f.err
}

func escalationBody(t *testing.T, id string) []byte {
	t.Helper()
	body, err := json.Marshal(model.EscalationMessage{MessageID: id, PeriodKey: "escalation:period:3"})
	require.NoError(t, err)
	return body
}

func TestHandleEscalationRunsOnce(t *testing.T) {
	tracker := newFakeTracker()
	esc := &fakeEscalations{}
	c := NewConsumers(esc, tracker, nil)
	ctx := context.Background()

	require.NoError(t, c.HandleEscalation(ctx, escalationBody(t, "escalation_1")))
	assert.Equal(t, "completed", tracker.seen["escalation_1"])

	err := c.HandleEscalation(ctx, escalationBody(t, "escalation_1"))
	assert.True(t, errors.IsSkipMessageError(err))
	require.Len(t, esc.jobs, 1)
	assert.Equal(t, "escalation:period:3", esc.jobs[0].PeriodKey)
}

func TestHandleEscalationFailureAllowsRetry(t *testing.T) {
	tracker := newFakeTracker()
	esc := &fakeEscalations{err: assert.AnError}
	c := NewConsumers(esc, tracker, nil)

	err := c.HandleEscalation(context.Background(), escalationBody(t, "escalation_2"))
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, errors.IsSkipMessageError(err))
	assert.NotContains(t, tracker.seen, "escalation_2")
}

func TestHandleEscalationProceedsWhenTrackerDown(t *testing.T) {
	tracker := newFakeTracker()
	tracker.failCheck = true
	esc := &fakeEscalations{}
	c := NewConsumers(esc, tracker, nil)

	require.NoError(t, c.HandleEscalation(context.Background(), escalationBody(t, "escalation_3")))
	assert.Len(t, esc.jobs, 1)
}

func TestHandleMalformedMessagesAreNotRetried(t *testing.T) {
	c := NewConsumers(&fakeEscalations{}, newFakeTracker(), nil)

	assert.True(t, errors.IsNonRetryableError(c.HandleEscalation(context.Background(), []byte("{"))))
	assert.True(t, errors.IsNonRetryableError(c.HandleDisplayEvent(context.Background(), []byte("nope"))))
}

func TestProducerPublishEscalation(t *testing.T) {
	require.NoError(t, snowflake.Init(1, 1))

	type call struct {
		exchange, key, id string
		body              interface{}
	}
	var calls []call
	p := &Producer{publish: func(_ context.Context, exchange, key, id string, body interface{}) error {
		calls = append(calls, call{exchange, key, id, body})
		return nil
	}}

	require.NoError(t, p.DispatchEscalation(context.Background(), model.EscalationMessage{PeriodKey: "escalation:period:never"}))
	require.Len(t, calls, 1)
	assert.Equal(t, mq.EventsExchange, calls[0].exchange)
	assert.Equal(t, mq.EscalationRoutingKey, calls[0].key)
	assert.True(t, strings.HasPrefix(calls[0].id, "escalation_"))

	msg := calls[0].body.(model.EscalationMessage)
	assert.Equal(t, calls[0].id, msg.MessageID)
	assert.NotEmpty(t, msg.DetectedAt)

	require.NoError(t, p.PublishDisplayEvent(context.Background(), model.DisplayEventMessage{MessageID: "display_1"}))
	assert.Equal(t, mq.DisplayRoutingKey, calls[1].key)
}

func TestProducerPublishFailure(t *testing.T) {
	require.NoError(t, snowflake.Init(1, 1))
	p := &Producer{publish: func(context.Context, string, string, string, interface{}) error { return assert.AnError }}

	err := p.PublishEscalation(context.Background(), model.EscalationMessage{MessageID: "m"})
	assert.ErrorIs(t, err, assert.AnError)
}
