package tasks

import (
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithdrawalNotifyRoundTrip(t *testing.T) {
	task, err := NewWithdrawalNotifyTask(WithdrawalNotifyPayload{WithdrawalID: 7, Event: EventApproved})
	require.NoError(t, err)
	assert.Equal(t, TypeWithdrawalNotify, task.Type())

	p, err := ParseWithdrawalNotify(task)
	require.NoError(t, err)
	assert.Equal(t, uint(7), p.WithdrawalID)
	assert.Equal(t, EventApproved, p.Event)
}

func TestWithdrawalNotifyRejectsEmptyPayload(t *testing.T) {
	_, err := NewWithdrawalNotifyTask(WithdrawalNotifyPayload{})
	assert.Error(t, err)
}

func TestMalformedPayloadSkipsRetry(t *testing.T) {
	_, err := ParseWithdrawalNotify(asynq.NewTask(TypeWithdrawalNotify, []byte("{not json")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	_, err = ParseWithdrawalNotify(asynq.NewTask(TypeWithdrawalNotify, []byte(`{"event":"approved"}`)))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	_, err = ParsePanchangamSync(asynq.NewTask(TypePanchangamSync, []byte("[")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
