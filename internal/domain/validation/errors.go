package validation

import "errors"

// Client-facing messages.
const (
	MsgNameRequired  = "Name is required."
	MsgScoresNumeric = "cash, sales, burn must be numbers."
)

// Rejection reasons, used as metric labels.
const (
	ReasonName   = "name"
	ReasonScores = "scores"
)

// ErrInvalid is matched by every *ValidationError via errors.Is.
var ErrInvalid = errors.New("invalid submission")

// ValidationError describes why a submission was rejected. Message is safe to
// return to clients verbatim.
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is makes errors.Is(err, ErrInvalid) hold for any ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }
