package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkflowState_Busy(t *testing.T) {
	tests := []struct {
		state    WorkflowState
		busy     bool
		terminal bool
	}{
		{Idle{}, false, false},
		{Submitting{}, true, false},
		{Polling{JobName: "models/veo/operations/1"}, true, false},
		{Succeeded{Video: Video{Data: []byte("mp4")}}, false, true},
		{Failed{Kind: ErrorKindFetch, Message: "404"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.Name(), func(t *testing.T) {
			assert.Equal(t, tt.busy, IsBusy(tt.state))
			assert.Equal(t, tt.terminal, IsTerminal(tt.state))
		})
	}
}

func TestWorkflowError(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := &WorkflowError{Kind: ErrorKindPoll, Message: "dial tcp: timeout", Cause: cause}

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, ErrorKindPoll, KindOf(err))
	assert.Equal(t, "[POLL_FAILURE] dial tcp: timeout", err.Error())
	assert.Equal(t, Failed{Kind: ErrorKindPoll, Message: "dial tcp: timeout"}, err.State())

	assert.Equal(t, ErrorKindUnknown, KindOf(errors.New("plain")))
}
