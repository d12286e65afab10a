package pipeline

import (
	"errors"

	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/redact"
)

// ErrIdentityChanged is returned when a repaired lead's id, name or email no
// longer matches the row it came from.
var ErrIdentityChanged = errors.New("repair changed identity fields")

// RepairError records a row that failed validation and could not be repaired.
type RepairError struct {
	// Validation is the schema failure that triggered the repair.
	Validation error
	// Err is why the repair did not produce an acceptable lead.
	Err error
}

func (e *RepairError) Error() string {
	return "repair failed: " + e.Message()
}

// Message is the repair failure text with secrets removed.
func (e *RepairError) Message() string {
	if e == nil || e.Err == nil {
		return "unknown repair error"
	}
	return redact.Secrets(e.Err.Error())
}

func (e *RepairError) Unwrap() error { return e.Err }
