package types

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxNotesLength bounds the free-text note on a single record
const MaxNotesLength = 500

// phonePattern accepts an optional leading + followed by 10-15 digits
var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateAgent checks the caller-supplied profile fields of an agent.
func ValidateAgent(a Agent) error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !emailPattern.MatchString(a.Email) {
		return fmt.Errorf("email %q is not a valid address", a.Email)
	}
	if a.Mobile != "" && !phonePattern.MatchString(a.Mobile) {
		return fmt.Errorf("mobile must be 10-15 digits with an optional leading +")
	}
	return nil
}

// ValidateRecordInput checks one normalized upload row. Row numbers in
// error messages are 1-based to match the uploaded file.
func ValidateRecordInput(in RecordInput, row int) error {
	if strings.TrimSpace(in.FirstName) == "" {
		return fmt.Errorf("row %d: firstName is required", row)
	}
	if !phonePattern.MatchString(in.Phone) {
		return fmt.Errorf("row %d: phone must be 10-15 digits with an optional leading +", row)
	}
	if len(in.Notes) > MaxNotesLength {
		return fmt.Errorf("row %d: notes exceeds %d characters", row, MaxNotesLength)
	}
	return nil
}

// ParseRecordStatus validates a status value from an update request.
func ParseRecordStatus(s string) (RecordStatus, error) {
	switch RecordStatus(s) {
	case RecordPending, RecordInProgress, RecordCompleted, RecordFailed:
		return RecordStatus(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// ParseStrategy maps a strategy name to a known strategy. Unknown names
// return ok=false; callers fall back to the default instead of failing.
func ParseStrategy(s string) (Strategy, bool) {
	switch Strategy(s) {
	case StrategyEqual, StrategyWeighted, StrategyPriority:
		return Strategy(s), true
	}
	return StrategyEqual, false
}
