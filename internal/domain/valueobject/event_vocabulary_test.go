package valueobject

import (
	"testing"
)

func TestNewEventType_ClosedVocabulary(t *testing.T) {
	for _, valid := range []string{"upload", "validation", "parse", "chunk", "embed", "lifecycle", "retry"} {
		if _, err := NewEventType(valid); err != nil {
			t.Errorf("Expected %q to be a valid event type: %v", valid, err)
		}
	}

	for _, invalid := range []string{"bogus", "", "Upload", "PARSE", "audit"} {
		if _, err := NewEventType(invalid); err == nil {
			t.Errorf("Expected %q to be rejected", invalid)
		}
	}
}

func TestNewEventSeverity_ClosedVocabulary(t *testing.T) {
	for _, valid := range []string{"info", "warn", "error"} {
		if _, err := NewEventSeverity(valid); err != nil {
			t.Errorf("Expected %q to be a valid severity: %v", valid, err)
		}
	}

	for _, invalid := range []string{"", "INFO", "warning", "fatal", "debug"} {
		if _, err := NewEventSeverity(invalid); err == nil {
			t.Errorf("Expected %q to be rejected", invalid)
		}
	}
}

func TestEventSeverity_SinkLabel(t *testing.T) {
	labels := map[EventSeverity]string{
		SeverityInfo:  "INFO",
		SeverityWarn:  "WARNING",
		SeverityError: "ERROR",
	}
	for severity, label := range labels {
		if got := severity.SinkLabel(); got != label {
			t.Errorf("Expected sink label %s for %s, got %s", label, severity, got)
		}
	}
}

func TestEventCode_Defaults(t *testing.T) {
	cases := []struct {
		code     EventCode
		severity EventSeverity
		typ      EventType
	}{
		{CodeUploadAccepted, SeverityInfo, EventTypeUpload},
		{CodeDocumentDeduplicated, SeverityInfo, EventTypeUpload},
		{CodeJobValidated, SeverityInfo, EventTypeValidation},
		{CodeParseHashMismatch, SeverityError, EventTypeParse},
		{CodeRetryScheduled, SeverityWarn, EventTypeRetry},
		{CodeDLQMoved, SeverityError, EventTypeRetry},
		{CodeJobFailed, SeverityError, EventTypeLifecycle},
		{CodeClaimExpired, SeverityWarn, EventTypeLifecycle},
	}

	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			if got := tc.code.DefaultSeverity(); got != tc.severity {
				t.Errorf("Expected default severity %s, got %s", tc.severity, got)
			}
			if got := tc.code.DefaultType(); got != tc.typ {
				t.Errorf("Expected default type %s, got %s", tc.typ, got)
			}
		})
	}
}

func TestNewEventCode_Invalid(t *testing.T) {
	for _, invalid := range []string{"", "bogus", "upload_accepted", "DLQ_MOVED ", "PARSE"} {
		if _, err := NewEventCode(invalid); err == nil {
			t.Errorf("Expected %q to be rejected", invalid)
		}
	}
}

func TestAllEventCodes_AllValid(t *testing.T) {
	codes := AllEventCodes()
	if len(codes) == 0 {
		t.Fatal("Expected at least one event code")
	}
	for _, code := range codes {
		if !code.IsValid() {
			t.Errorf("AllEventCodes returned invalid code %s", code)
		}
	}
}
