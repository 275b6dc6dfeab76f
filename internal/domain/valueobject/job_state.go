package valueobject

import "fmt"

// JobState represents the coarse lifecycle state of an upload job.
type JobState string

// Job state constants.
const (
	JobStateQueued     JobState = "queued"
	JobStateWorking    JobState = "working"
	JobStateRetryable  JobState = "retryable"
	JobStateDone       JobState = "done"
	JobStateDeadLetter JobState = "deadletter"
)

// validJobStates contains all valid job states.
var validJobStates = map[JobState]bool{
	JobStateQueued:     true,
	JobStateWorking:    true,
	JobStateRetryable:  true,
	JobStateDone:       true,
	JobStateDeadLetter: true,
}

// jobStateTransitions is the fixed state transition table. Terminal states
// only self-loop.
var jobStateTransitions = map[JobState][]JobState{
	JobStateQueued:     {JobStateWorking, JobStateDone},
	JobStateWorking:    {JobStateDone, JobStateRetryable, JobStateDeadLetter},
	JobStateRetryable:  {JobStateQueued, JobStateDeadLetter},
	JobStateDone:       {JobStateDone},
	JobStateDeadLetter: {JobStateDeadLetter},
}

// NewJobState creates a new JobState with validation.
func NewJobState(state string) (JobState, error) {
	s := JobState(state)
	if !validJobStates[s] {
		return "", fmt.Errorf("invalid job state: %s", state)
	}
	return s, nil
}

// String returns the string representation of the state.
func (s JobState) String() string {
	return string(s)
}

// IsTerminal returns true if this state represents a final state.
func (s JobState) IsTerminal() bool {
	return s == JobStateDone || s == JobStateDeadLetter
}

// IsRetryEligible returns true if a manual retry may re-queue a job in this state.
func (s JobState) IsRetryEligible() bool {
	return s == JobStateRetryable || s == JobStateDeadLetter
}

// CanTransitionTo returns true if the state can transition to the target state.
func (s JobState) CanTransitionTo(target JobState) bool {
	for _, validTarget := range jobStateTransitions[s] {
		if target == validTarget {
			return true
		}
	}
	return false
}

// AllJobStates returns all valid job states.
func AllJobStates() []JobState {
	states := make([]JobState, 0, len(validJobStates))
	for state := range validJobStates {
		states = append(states, state)
	}
	return states
}
