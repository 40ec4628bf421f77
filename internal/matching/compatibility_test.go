package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/nearmatch/internal/db"
	"github.com/oggyb/nearmatch/internal/repository"
)

func TestSameSide(t *testing.T) {
	assert.True(t, SameSide(1, 2, 3))
	assert.True(t, SameSide(4, 6, 3))
	assert.False(t, SameSide(1, 7, 3))
	// average itself sits on both sides
	assert.True(t, SameSide(3, 1, 3))
	assert.True(t, SameSide(3, 5, 3))
}

func TestCountOverlap(t *testing.T) {
	c := newCategory("introverted", strptr("extraverted"))
	me := answers(
		[]db.NumericalResponse{numResp(1, 1, 3, c), numResp(2, 5, 3, c), numResp(3, 2, 3, c)},
		[]db.TextResponse{textResp(10, "hello", c), textResp(11, "cats", c)},
	)
	them := answers(
		[]db.NumericalResponse{numResp(1, 2, 3, c), numResp(2, 1, 3, c)},
		[]db.TextResponse{textResp(10, "hello", c), textResp(11, "dogs", c)},
	)

	o := CountOverlap(me, them)
	assert.Equal(t, Overlap{Numerical: 1, Text: 1}, o)

	assert.Equal(t, Overlap{}, CountOverlap(me, nil))
}

func TestCompatibilityFilter_First(t *testing.T) {
	c := newCategory("introverted", strptr("extraverted"))
	me := answers(
		[]db.NumericalResponse{numResp(1, 1, 3, c)},
		[]db.TextResponse{textResp(10, "hello", c)},
	)
	candidates := []db.User{{ID: 2}, {ID: 3}, {ID: 4}}
	byUser := map[uint64]*repository.Responses{
		2: answers([]db.NumericalResponse{numResp(1, 7, 3, c)}, []db.TextResponse{textResp(10, "hello", c)}),
		3: answers([]db.NumericalResponse{numResp(1, 2, 3, c)}, []db.TextResponse{textResp(10, "hello", c)}),
		4: answers([]db.NumericalResponse{numResp(1, 1, 3, c)}, []db.TextResponse{textResp(10, "hello", c)}),
	}

	f := CompatibilityFilter{MinNumerical: 1, MinText: 1}
	got := f.First(me, candidates, byUser)
	require.NotNil(t, got)
	assert.Equal(t, uint64(3), got.ID)

	strict := CompatibilityFilter{MinNumerical: 2, MinText: 1}
	assert.Nil(t, strict.First(me, candidates, byUser))

	lenient := CompatibilityFilter{}
	assert.Equal(t, uint64(2), lenient.First(me, candidates, byUser).ID)
}
