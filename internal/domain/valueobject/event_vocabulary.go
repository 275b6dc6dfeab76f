package valueobject

import "fmt"

// EventType categorizes an audit event. The vocabulary is closed: unknown
// types are rejected at logging time rather than coerced.
type EventType string

// Event type constants.
const (
	EventTypeUpload     EventType = "upload"
	EventTypeValidation EventType = "validation"
	EventTypeParse      EventType = "parse"
	EventTypeChunk      EventType = "chunk"
	EventTypeEmbed      EventType = "embed"
	EventTypeLifecycle  EventType = "lifecycle"
	EventTypeRetry      EventType = "retry"
)

var validEventTypes = map[EventType]bool{
	EventTypeUpload:     true,
	EventTypeValidation: true,
	EventTypeParse:      true,
	EventTypeChunk:      true,
	EventTypeEmbed:      true,
	EventTypeLifecycle:  true,
	EventTypeRetry:      true,
}

// NewEventType creates a new EventType with validation.
func NewEventType(eventType string) (EventType, error) {
	t := EventType(eventType)
	if !validEventTypes[t] {
		return "", fmt.Errorf("invalid event type: %s", eventType)
	}
	return t, nil
}

// String returns the string representation of the event type.
func (t EventType) String() string {
	return string(t)
}

// EventSeverity is the severity recorded on an audit event.
type EventSeverity string

// Event severity constants.
const (
	SeverityInfo  EventSeverity = "info"
	SeverityWarn  EventSeverity = "warn"
	SeverityError EventSeverity = "error"
)

var validEventSeverities = map[EventSeverity]bool{
	SeverityInfo:  true,
	SeverityWarn:  true,
	SeverityError: true,
}

// NewEventSeverity creates a new EventSeverity with validation.
func NewEventSeverity(severity string) (EventSeverity, error) {
	s := EventSeverity(severity)
	if !validEventSeverities[s] {
		return "", fmt.Errorf("invalid event severity: %s", severity)
	}
	return s, nil
}

// String returns the string representation of the severity.
func (s EventSeverity) String() string {
	return string(s)
}

// SinkLabel returns the presentation label used by log sinks. This mapping
// is a display concern only; storage always keeps the lowercase form.
func (s EventSeverity) SinkLabel() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarn:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return string(s)
	}
}

// EventCode identifies what happened. Every code carries a default severity
// and type; the severity actually stored is whatever the caller passes.
type EventCode string

// Event code constants.
const (
	CodeUploadAccepted       EventCode = "UPLOAD_ACCEPTED"
	CodeDocumentDeduplicated EventCode = "DOCUMENT_DEDUPLICATED"
	CodeJobValidated         EventCode = "JOB_VALIDATED"
	CodeParseStarted         EventCode = "PARSE_STARTED"
	CodeParseCompleted       EventCode = "PARSE_COMPLETED"
	CodeParseHashMismatch    EventCode = "PARSE_HASH_MISMATCH"
	CodeChunksBuffered       EventCode = "CHUNKS_BUFFERED"
	CodeChunkCompleted       EventCode = "CHUNK_COMPLETED"
	CodeEmbedStarted         EventCode = "EMBED_STARTED"
	CodeEmbedCompleted       EventCode = "EMBED_COMPLETED"
	CodeJobCompleted         EventCode = "JOB_COMPLETED"
	CodeJobFailed            EventCode = "JOB_FAILED"
	CodeRetryScheduled       EventCode = "RETRY_SCHEDULED"
	CodeDLQMoved             EventCode = "DLQ_MOVED"
	CodeClaimExpired         EventCode = "CLAIM_EXPIRED"
)

// eventCodeDefaults binds each code to its implied type and severity.
type eventCodeDefault struct {
	Type     EventType
	Severity EventSeverity
}

var eventCodeDefaults = map[EventCode]eventCodeDefault{
	CodeUploadAccepted:       {EventTypeUpload, SeverityInfo},
	CodeDocumentDeduplicated: {EventTypeUpload, SeverityInfo},
	CodeJobValidated:         {EventTypeValidation, SeverityInfo},
	CodeParseStarted:         {EventTypeParse, SeverityInfo},
	CodeParseCompleted:       {EventTypeParse, SeverityInfo},
	CodeParseHashMismatch:    {EventTypeParse, SeverityError},
	CodeChunksBuffered:       {EventTypeChunk, SeverityInfo},
	CodeChunkCompleted:       {EventTypeChunk, SeverityInfo},
	CodeEmbedStarted:         {EventTypeEmbed, SeverityInfo},
	CodeEmbedCompleted:       {EventTypeEmbed, SeverityInfo},
	CodeJobCompleted:         {EventTypeLifecycle, SeverityInfo},
	CodeJobFailed:            {EventTypeLifecycle, SeverityError},
	CodeRetryScheduled:       {EventTypeRetry, SeverityWarn},
	CodeDLQMoved:             {EventTypeRetry, SeverityError},
	CodeClaimExpired:         {EventTypeLifecycle, SeverityWarn},
}

// NewEventCode creates a new EventCode with validation.
func NewEventCode(code string) (EventCode, error) {
	c := EventCode(code)
	if _, ok := eventCodeDefaults[c]; !ok {
		return "", fmt.Errorf("invalid event code: %s", code)
	}
	return c, nil
}

// String returns the string representation of the code.
func (c EventCode) String() string {
	return string(c)
}

// IsValid returns true if the code belongs to the closed vocabulary.
func (c EventCode) IsValid() bool {
	_, ok := eventCodeDefaults[c]
	return ok
}

// DefaultSeverity returns the severity implied by the code.
func (c EventCode) DefaultSeverity() EventSeverity {
	if def, ok := eventCodeDefaults[c]; ok {
		return def.Severity
	}
	return SeverityInfo
}

// DefaultType returns the event type implied by the code.
func (c EventCode) DefaultType() EventType {
	if def, ok := eventCodeDefaults[c]; ok {
		return def.Type
	}
	return EventTypeLifecycle
}

// AllEventCodes returns every code in the closed vocabulary.
func AllEventCodes() []EventCode {
	codes := make([]EventCode, 0, len(eventCodeDefaults))
	for code := range eventCodeDefaults {
		codes = append(codes, code)
	}
	return codes
}
