// Package validation normalizes and checks leaderboard submissions before
// they reach storage. Everything here is pure: no I/O, no clock, no globals.
package validation

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/okian/gauntlet/internal/domain/model"
)

const defaultMaxNameLength = 32

// int64 bounds as float64; maxInt64Float is exclusive.
const (
	minInt64Float = -9223372036854775808.0
	maxInt64Float = 9223372036854775808.0
)

// Submission is an untrusted payload as decoded from JSON (numbers decoded
// as json.Number). Missing keys are nil.
type Submission struct {
	Name  any
	Cash  any
	Sales any
	Burn  any
}

// SubmissionFromJSON maps a decoded JSON document onto a Submission.
// Anything other than an object yields an empty Submission.
func SubmissionFromJSON(doc any) Submission {
	obj, ok := doc.(map[string]any)
	if !ok {
		return Submission{}
	}
	return Submission{
		Name:  obj["name"],
		Cash:  obj["cash"],
		Sales: obj["sales"],
		Burn:  obj["burn"],
	}
}

// Validator validates submissions.
type Validator struct {
	maxNameLength int
}

// Option configures a Validator.
type Option func(*Validator)

// WithMaxNameLength sets the rune length names are truncated to.
func WithMaxNameLength(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.maxNameLength = n
		}
	}
}

// New returns a Validator with a 32-character name limit.
func New(opts ...Option) *Validator {
	v := &Validator{maxNameLength: defaultMaxNameLength}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate normalizes s into a Candidate or returns a *ValidationError.
// The name is checked before the scores.
func (v *Validator) Validate(s Submission) (model.Candidate, error) {
	name := v.NormalizeName(s.Name)
	if name == "" {
		return model.Candidate{}, &ValidationError{Reason: ReasonName, Message: MsgNameRequired}
	}

	var scores [3]int64
	for i, raw := range []any{s.Cash, s.Sales, s.Burn} {
		n, ok := toNumber(raw)
		if !ok {
			return model.Candidate{}, &ValidationError{Reason: ReasonScores, Message: MsgScoresNumeric}
		}
		r, ok := roundToInt64(n)
		if !ok {
			return model.Candidate{}, &ValidationError{Reason: ReasonScores, Message: MsgScoresNumeric}
		}
		scores[i] = r
	}

	return model.Candidate{
		Name:  name,
		Cash:  scores[0],
		Sales: scores[1],
		Burn:  scores[2],
	}, nil
}

// NormalizeName collapses whitespace runs to one space, trims the ends and
// truncates to the configured length. Non-strings normalize to "".
func (v *Validator) NormalizeName(raw any) string {
	s, ok := raw.(string)
	if !ok {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > v.maxNameLength {
		s = string(runes[:v.maxNameLength])
	}
	return s
}

// toNumber accepts JSON numbers and numeric strings. The result may still be
// NaN or infinite; callers must check.
func toNumber(raw any) (float64, bool) {
	switch x := raw.(type) {
	case json.Number:
		return parseFloat(x.String())
	case string:
		return parseFloat(strings.TrimSpace(x))
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

func parseFloat(s string) (float64, bool) {
	// decimal only; ParseFloat would also take hex floats like "0x1p4"
	if s == "" || strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// roundToInt64 rounds half toward positive infinity and rejects NaN,
// infinities and values outside the int64 range.
func roundToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	r := math.Floor(f)
	if f-r >= 0.5 {
		r++
	}
	if r < minInt64Float || r >= maxInt64Float {
		return 0, false
	}
	return int64(r), true
}
