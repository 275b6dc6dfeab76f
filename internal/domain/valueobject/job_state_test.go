package valueobject

import (
	"testing"
)

func TestNewJobState_ValidStates(t *testing.T) {
	validStates := []struct {
		input    string
		expected JobState
	}{
		{"queued", JobStateQueued},
		{"working", JobStateWorking},
		{"retryable", JobStateRetryable},
		{"done", JobStateDone},
		{"deadletter", JobStateDeadLetter},
	}

	for _, tc := range validStates {
		t.Run(tc.input, func(t *testing.T) {
			state, err := NewJobState(tc.input)
			if err != nil {
				t.Fatalf("Expected no error for valid state %s, got: %v", tc.input, err)
			}

			if state != tc.expected {
				t.Errorf("Expected state %s, got %s", tc.expected, state)
			}
		})
	}
}

func TestNewJobState_InvalidStates(t *testing.T) {
	invalidStates := []string{
		"invalid",
		"QUEUED",  // case sensitive
		"Working", // case sensitive
		"",        // empty string
		" queued", // leading space
		"queued ", // trailing space
		"pending",
		"running",
		"failed",
		"dead_letter",
	}

	for _, state := range invalidStates {
		t.Run(state, func(t *testing.T) {
			_, err := NewJobState(state)
			if err == nil {
				t.Fatalf("Expected error for invalid state %s, got none", state)
			}

			expectedError := "invalid job state: " + state
			if err.Error() != expectedError {
				t.Errorf("Expected error '%s', got '%v'", expectedError, err)
			}
		})
	}
}

func TestJobState_CanTransitionTo(t *testing.T) {
	allowed := []struct {
		from JobState
		to   JobState
	}{
		{JobStateQueued, JobStateWorking},
		{JobStateQueued, JobStateDone},
		{JobStateWorking, JobStateDone},
		{JobStateWorking, JobStateRetryable},
		{JobStateWorking, JobStateDeadLetter},
		{JobStateRetryable, JobStateQueued},
		{JobStateRetryable, JobStateDeadLetter},
		{JobStateDone, JobStateDone},
		{JobStateDeadLetter, JobStateDeadLetter},
	}

	for _, tc := range allowed {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			if !tc.from.CanTransitionTo(tc.to) {
				t.Errorf("Expected %s -> %s to be allowed", tc.from, tc.to)
			}
		})
	}

	rejected := []struct {
		from JobState
		to   JobState
	}{
		{JobStateQueued, JobStateRetryable},
		{JobStateQueued, JobStateDeadLetter},
		{JobStateQueued, JobStateQueued},
		{JobStateWorking, JobStateQueued},
		{JobStateWorking, JobStateWorking},
		{JobStateRetryable, JobStateWorking},
		{JobStateRetryable, JobStateDone},
		{JobStateDone, JobStateWorking},
		{JobStateDone, JobStateQueued},
		{JobStateDone, JobStateRetryable},
		{JobStateDone, JobStateDeadLetter},
		{JobStateDeadLetter, JobStateQueued},
		{JobStateDeadLetter, JobStateWorking},
		{JobStateDeadLetter, JobStateDone},
	}

	for _, tc := range rejected {
		t.Run(string(tc.from)+"_to_"+string(tc.to)+"_rejected", func(t *testing.T) {
			if tc.from.CanTransitionTo(tc.to) {
				t.Errorf("Expected %s -> %s to be rejected", tc.from, tc.to)
			}
		})
	}
}

func TestJobState_IsTerminal(t *testing.T) {
	if !JobStateDone.IsTerminal() {
		t.Error("done should be terminal")
	}
	if !JobStateDeadLetter.IsTerminal() {
		t.Error("deadletter should be terminal")
	}
	for _, state := range []JobState{JobStateQueued, JobStateWorking, JobStateRetryable} {
		if state.IsTerminal() {
			t.Errorf("%s should not be terminal", state)
		}
	}
}

func TestJobState_IsRetryEligible(t *testing.T) {
	if !JobStateRetryable.IsRetryEligible() {
		t.Error("retryable should be retry eligible")
	}
	if !JobStateDeadLetter.IsRetryEligible() {
		t.Error("deadletter should be retry eligible")
	}
	for _, state := range []JobState{JobStateQueued, JobStateWorking, JobStateDone} {
		if state.IsRetryEligible() {
			t.Errorf("%s should not be retry eligible", state)
		}
	}
}
