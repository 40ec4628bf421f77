package matching

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/nearmatch/internal/db"
)

var fixedNow = time.Date(2024, 4, 20, 18, 30, 0, 0, time.UTC)

func seeded(seed uint64) *PayloadBuilder {
	return NewPayloadBuilder(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), func() time.Time { return fixedNow })
}

func f64(v float64) *float64 { return &v }

func userAt(id uint64, name string, lat, lng *float64) *db.User {
	return &db.User{ID: id, FirstName: name, Email: name + "@usc.edu", Latitude: lat, Longitude: lng}
}

// numericalPair builds n questions both users answered on the same (low)
// side, each in its own category.
func numericalPair(n int) ([]db.NumericalResponse, []db.NumericalResponse) {
	var mine, theirs []db.NumericalResponse
	for i := 0; i < n; i++ {
		c := newCategory(fmt.Sprintf("low-%d", i), strptr(fmt.Sprintf("high-%d", i)))
		mine = append(mine, numResp(uint64(i+1), 1, 3, c))
		theirs = append(theirs, numResp(uint64(i+1), 2, 3, c))
	}
	return mine, theirs
}

func textPair(n int) ([]db.TextResponse, []db.TextResponse) {
	var mine, theirs []db.TextResponse
	for i := 0; i < n; i++ {
		c := newCategory(fmt.Sprintf("trait-%d", i), nil)
		answer := fmt.Sprintf("answer-%d", i)
		mine = append(mine, textResp(uint64(100+i), answer, c))
		theirs = append(theirs, textResp(uint64(100+i), answer, c))
	}
	return mine, theirs
}

func TestBuildMatchPayload_NumericalAlwaysThree(t *testing.T) {
	defaults := map[string]bool{"open-minded": true, "intentional": true, "empathetic": true}

	for _, raw := range []int{0, 1, 2, 3, 5} {
		t.Run(fmt.Sprintf("raw=%d", raw), func(t *testing.T) {
			mine, theirs := numericalPair(raw)
			user := &Profile{User: userAt(1, "a", nil, nil), Responses: answers(mine, nil)}
			partner := &Profile{User: userAt(2, "b", nil, nil), Responses: answers(theirs, nil)}

			p := seeded(7).BuildMatchPayload(10, user, partner)
			require.Len(t, p.NumericalSimilarities, 3)

			seen := map[string]bool{}
			for _, s := range p.NumericalSimilarities {
				assert.False(t, seen[s.Trait], "duplicate trait %s", s.Trait)
				seen[s.Trait] = true
				if raw < 3 {
					assert.True(t, defaults[s.Trait], "expected default trait, got %s", s.Trait)
				} else {
					assert.Contains(t, s.Trait, "low-")
				}
			}
		})
	}
}

func TestBuildMatchPayload_TextCappedAtThree(t *testing.T) {
	for _, raw := range []int{0, 1, 3, 6} {
		t.Run(fmt.Sprintf("raw=%d", raw), func(t *testing.T) {
			mine, theirs := textPair(raw)
			user := &Profile{User: userAt(1, "a", nil, nil), Responses: answers(nil, mine)}
			partner := &Profile{User: userAt(2, "b", nil, nil), Responses: answers(nil, theirs)}

			p := seeded(3).BuildMatchPayload(10, user, partner)
			assert.Len(t, p.TextSimilarities, min(raw, 3))
			assert.NotNil(t, p.TextSimilarities)
		})
	}
}

func TestBuildMatchPayload_PercentRanges(t *testing.T) {
	mine, theirs := numericalPair(4)
	user := &Profile{User: userAt(1, "a", nil, nil), Responses: answers(mine, nil)}
	partner := &Profile{User: userAt(2, "b", nil, nil), Responses: answers(theirs, nil)}

	b := seeded(11)
	for i := 0; i < 200; i++ {
		p := b.BuildMatchPayload(1, user, partner)
		assert.GreaterOrEqual(t, p.Compatibility, 90)
		assert.LessOrEqual(t, p.Compatibility, 99)
		for _, s := range p.NumericalSimilarities {
			assert.GreaterOrEqual(t, s.AvgPercent, 35)
			assert.LessOrEqual(t, s.AvgPercent, 65)
			assert.GreaterOrEqual(t, s.YouPercent, 85)
			assert.LessOrEqual(t, s.YouPercent, 99)
			assert.NotEqual(t, s.YouPercent, s.PartnerPercent)
		}
	}
}

func TestBuildMatchPayload_TraitLabels(t *testing.T) {
	social := newCategory("introverted", strptr("extraverted"))
	active := newCategory("homebody", strptr("adventurous"))
	oneSided := newCategory("funny", nil)
	pets := newCategory("animal lover", nil)
	music := newCategory("music fan", nil)

	user := &Profile{
		User: userAt(1, "a", nil, nil),
		Responses: answers(
			[]db.NumericalResponse{
				numResp(1, 1, 3, social),   // below → introverted
				numResp(2, 5, 3, active),   // above → adventurous
				numResp(3, 1, 3, oneSided), // no trait2, skipped
				numResp(4, 2, 3, social),   // duplicate trait, skipped
			},
			[]db.TextResponse{
				textResp(10, "cat", pets, db.TextAnswerChoice{Answer: "cat", Emoji: "🐱"}),
				textResp(11, "none", music),
				textResp(12, "jazz", music),
			},
		),
	}
	partner := &Profile{
		User: userAt(2, "b", nil, nil),
		Responses: answers(
			[]db.NumericalResponse{
				numResp(1, 2, 3, social),
				numResp(2, 6, 3, active),
				numResp(3, 2, 3, oneSided),
				numResp(4, 1, 3, social),
			},
			[]db.TextResponse{
				textResp(10, "cat", pets, db.TextAnswerChoice{Answer: "cat", Emoji: "🐱"}),
				textResp(11, "none", music),
				textResp(12, "jazz", music),
			},
		),
	}

	b := seeded(5)
	var traits []string
	for _, s := range b.numericalSimilarities(user.Responses, partner.Responses) {
		traits = append(traits, s.Trait)
	}
	assert.Equal(t, []string{"introverted", "adventurous"}, traits)

	p := b.BuildMatchPayload(1, user, partner)
	require.Len(t, p.TextSimilarities, 2)
	assert.Equal(t, TextSimilarity{Trait: "animal lover", SharedResponse: "cat", Emoji: "🐱"}, p.TextSimilarities[0])
	assert.Equal(t, TextSimilarity{Trait: "music fan", SharedResponse: "jazz", Emoji: "❤️"}, p.TextSimilarities[1])
}

func TestBuildMatchPayload_SeedIsReproducible(t *testing.T) {
	mine, theirs := numericalPair(5)
	tm, tt := textPair(5)
	user := &Profile{User: userAt(1, "a", f64(34.0205), f64(-118.2856)), Responses: answers(mine, tm)}
	partner := &Profile{User: userAt(2, "b", f64(34.0210), f64(-118.2850)), Responses: answers(theirs, tt)}

	p1 := seeded(42).BuildMatchPayload(9, user, partner)
	p2 := seeded(42).BuildMatchPayload(9, user, partner)
	assert.Equal(t, p1, p2)
}

func TestFlipMatchPayload(t *testing.T) {
	mine, theirs := numericalPair(4)
	tm, tt := textPair(2)
	a := userAt(1, "alice", f64(0), f64(0))
	b := userAt(2, "bob", f64(0.0005), f64(0.0005))
	user := &Profile{User: a, Responses: answers(mine, tm)}
	partner := &Profile{User: b, Responses: answers(theirs, tt)}

	p := seeded(99).BuildMatchPayload(5, user, partner)
	f := FlipMatchPayload(p, a)

	assert.Equal(t, b.ID, p.ID)
	assert.Equal(t, a.ID, f.ID)
	assert.Equal(t, "alice", f.FirstName)
	assert.Equal(t, "alice@usc.edu", f.Email)
	assert.Equal(t, a.Latitude, f.Latitude)

	assert.Equal(t, p.MatchID, f.MatchID)
	assert.Equal(t, p.Compatibility, f.Compatibility)
	require.NotNil(t, p.Distance)
	assert.Equal(t, *p.Distance, *f.Distance)
	assert.Equal(t, p.TextSimilarities, f.TextSimilarities)

	require.Len(t, f.NumericalSimilarities, len(p.NumericalSimilarities))
	for i := range p.NumericalSimilarities {
		assert.Equal(t, p.NumericalSimilarities[i].Trait, f.NumericalSimilarities[i].Trait)
		assert.Equal(t, p.NumericalSimilarities[i].AvgPercent, f.NumericalSimilarities[i].AvgPercent)
		assert.Equal(t, p.NumericalSimilarities[i].YouPercent, f.NumericalSimilarities[i].PartnerPercent)
		assert.Equal(t, p.NumericalSimilarities[i].PartnerPercent, f.NumericalSimilarities[i].YouPercent)
	}

	// the original is untouched
	f.NumericalSimilarities[0].Trait = "changed"
	assert.NotEqual(t, "changed", p.NumericalSimilarities[0].Trait)
}

func TestBuildMatchPayload_DistanceNilWithoutCoordinates(t *testing.T) {
	user := &Profile{User: userAt(1, "a", f64(0), nil), Responses: answers(nil, nil)}
	partner := &Profile{User: userAt(2, "b", f64(0), f64(0)), Responses: answers(nil, nil)}

	p := seeded(1).BuildMatchPayload(1, user, partner)
	assert.Nil(t, p.Distance)
	assert.Equal(t, float64(fixedNow.Unix()), p.Time)
}

func TestBuildAcceptPayload(t *testing.T) {
	a := userAt(1, "alice", f64(0), f64(0))
	b := userAt(2, "bob", f64(0), f64(0.001))

	p := seeded(1).BuildAcceptPayload(3, a, b, 94)
	assert.Equal(t, uint64(3), p.MatchID)
	assert.Equal(t, b.ID, p.ID)
	assert.Equal(t, "bob", p.FirstName)
	assert.Equal(t, 94, p.Compatibility)
	require.NotNil(t, p.Distance)
	assert.InDelta(t, 0.111, *p.Distance, 0.001)
}
