package matching

import (
	"github.com/oggyb/nearmatch/internal/db"
	"github.com/oggyb/nearmatch/internal/repository"
)

// SameSide reports whether a and b fall on the same side of average.
// An answer equal to the average counts as both sides.
func SameSide(a, b, average float64) bool {
	return (a <= average && b <= average) || (a >= average && b >= average)
}

// Overlap counts the questions on which two users agree.
type Overlap struct {
	Numerical int
	Text      int
}

// CountOverlap compares the user's answers against the candidate's.
// Numerical answers agree when they sit on the same side of the question's
// average; text answers agree when they are equal.
func CountOverlap(user, candidate *repository.Responses) Overlap {
	var o Overlap
	if user == nil || candidate == nil {
		return o
	}

	numerical := make(map[uint64]float64, len(candidate.Numerical))
	for _, r := range candidate.Numerical {
		numerical[r.QuestionID] = r.Answer
	}
	for _, r := range user.Numerical {
		theirs, ok := numerical[r.QuestionID]
		if ok && SameSide(r.Answer, theirs, r.Question.Average) {
			o.Numerical++
		}
	}

	text := make(map[uint64]string, len(candidate.Text))
	for _, r := range candidate.Text {
		text[r.QuestionID] = r.Answer
	}
	for _, r := range user.Text {
		if theirs, ok := text[r.QuestionID]; ok && theirs == r.Answer {
			o.Text++
		}
	}
	return o
}

// CompatibilityFilter holds the minimum overlaps a candidate needs.
type CompatibilityFilter struct {
	MinNumerical int
	MinText      int
}

func (f CompatibilityFilter) Accepts(o Overlap) bool {
	return o.Numerical >= f.MinNumerical && o.Text >= f.MinText
}

// First returns the first candidate, in the given order, whose overlap with
// the user passes the thresholds. No ranking is applied. Nil when none does.
func (f CompatibilityFilter) First(
	user *repository.Responses,
	candidates []db.User,
	responses map[uint64]*repository.Responses,
) *db.User {
	for i := range candidates {
		if f.Accepts(CountOverlap(user, responses[candidates[i].ID])) {
			return &candidates[i]
		}
	}
	return nil
}
