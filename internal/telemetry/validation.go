package telemetry

import (
	"fmt"
	"strings"
)

// Validation reasons returned to the ingestion client.
const (
	ReasonUnsupportedType      = "unsupported_type"
	ReasonMissingSessionID     = "missing_session_id"
	ReasonMissingFingerprintID = "missing_fingerprint_id"
)

// ValidationError describes why an event or batch was rejected.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ValidateEvent checks that an event carries a supported type and the two
// mandatory identifiers. Anything else about the payload is tolerated.
func ValidateEvent(event Event) error {
	if !AllowedTypes[event.Type] {
		return &ValidationError{Reason: ReasonUnsupportedType}
	}
	if strings.TrimSpace(event.SessionID) == "" {
		return &ValidationError{Reason: ReasonMissingSessionID}
	}
	if strings.TrimSpace(event.FingerprintID) == "" {
		return &ValidationError{Reason: ReasonMissingFingerprintID}
	}
	return nil
}

// ValidateBatch validates all events in order. Validation is all-or-nothing:
// the first failure rejects the whole batch, with the failing index recorded
// in the reason.
func ValidateBatch(events []Event) error {
	for i, event := range events {
		if err := ValidateEvent(event); err != nil {
			var reason string
			if ve, ok := err.(*ValidationError); ok {
				reason = ve.Reason
			} else {
				reason = err.Error()
			}
			return &ValidationError{Reason: fmt.Sprintf("%s_at_index_%d", reason, i)}
		}
	}
	return nil
}
