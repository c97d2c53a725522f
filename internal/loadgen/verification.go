package loadgen

import (
	"fmt"
	"sort"

	"github.com/okian/gauntlet/internal/client"
	"github.com/okian/gauntlet/internal/domain/model"
	"github.com/okian/gauntlet/internal/domain/types"
	"github.com/okian/gauntlet/internal/domain/validation"
)

// expectedBoard applies server-side normalization to the submissions and
// ranks them. Submission order stands in for ids.
func expectedBoard(subs []client.Submission) ([]model.Entry, error) {
	v := validation.New()
	out := make([]model.Entry, 0, len(subs))
	for i, s := range subs {
		c, err := v.Validate(validation.Submission{Name: s.Name, Cash: s.Cash, Sales: s.Sales, Burn: s.Burn})
		if err != nil {
			return nil, fmt.Errorf("generated submission %d is invalid: %w", i, err)
		}
		out = append(out, model.Entry{
			ID: int64(i), Name: c.Name, Cash: c.Cash, Sales: c.Sales, Burn: c.Burn,
		})
	}
	sort.Slice(out, func(i, j int) bool { return model.RanksBefore(out[i], out[j]) })
	return out, nil
}

func toModel(e types.Entry) model.Entry {
	return model.Entry{Name: e.Name, Cash: e.Cash, Sales: e.Sales, Burn: e.Burn, CreatedAt: e.CreatedAt}
}

// verifyOrder checks the window size and that no row outranks the one
// before it. Ids are not exposed, so equal scores are accepted in any order.
func verifyOrder(board []types.Entry) error {
	if len(board) > windowSize {
		return fmt.Errorf("%w: %d rows returned, window is %d", ErrVerification, len(board), windowSize)
	}
	for i := 1; i < len(board); i++ {
		if model.RanksBefore(toModel(board[i]), toModel(board[i-1])) {
			return fmt.Errorf("%w: row %d (%s) outranks row %d (%s)",
				ErrVerification, i, board[i].Name, i-1, board[i-1].Name)
		}
	}
	return nil
}

// verifyTop compares the board with the locally ranked submissions. It is
// only meaningful when the board was empty before the run and every
// submission was stored.
func verifyTop(board []types.Entry, expected []model.Entry) error {
	want := len(expected)
	if want > windowSize {
		want = windowSize
	}
	if len(board) != want {
		return fmt.Errorf("%w: expected %d rows, got %d", ErrVerification, want, len(board))
	}
	for i := range board {
		got, exp := toModel(board[i]), expected[i]
		if got.Cash != exp.Cash || got.Sales != exp.Sales || got.Burn != exp.Burn {
			return fmt.Errorf("%w: row %d is %s (%d/%d/%d), expected %s (%d/%d/%d)",
				ErrVerification, i,
				got.Name, got.Cash, got.Sales, got.Burn,
				exp.Name, exp.Cash, exp.Sales, exp.Burn)
		}
	}
	return nil
}
