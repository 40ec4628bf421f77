package matching

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/oggyb/nearmatch/internal/db"
	"github.com/oggyb/nearmatch/internal/geo"
	"github.com/oggyb/nearmatch/internal/repository"
)

const (
	similarityCount = 3
	defaultEmoji    = "❤️"
)

var (
	defaultTraits    = []string{"open-minded", "intentional", "empathetic"}
	noOpinionAnswers = map[string]struct{}{"none": {}, "other": {}, "none/other": {}}
)

type NumericalSimilarity struct {
	Trait          string `json:"trait"`
	AvgPercent     int    `json:"avg_percent"`
	YouPercent     int    `json:"you_percent"`
	PartnerPercent int    `json:"partner_percent"`
}

type TextSimilarity struct {
	Trait          string `json:"trait"`
	SharedResponse string `json:"shared_response"`
	Emoji          string `json:"emoji"`
}

// MatchPayload is sent to one side of a new match and describes the other.
type MatchPayload struct {
	MatchID       uint64   `json:"match_id"`
	ID            uint64   `json:"id"`
	FirstName     string   `json:"first_name"`
	Email         string   `json:"email"`
	Time          float64  `json:"time"`
	Compatibility int      `json:"compatibility"`
	Distance      *float64 `json:"distance"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`

	NumericalSimilarities []NumericalSimilarity `json:"numerical_similarities"`
	TextSimilarities      []TextSimilarity      `json:"text_similarities"`
}

// AcceptPayload is sent to each side once both accepted.
type AcceptPayload struct {
	MatchID       uint64   `json:"match_id"`
	ID            uint64   `json:"id"`
	FirstName     string   `json:"first_name"`
	Email         string   `json:"email"`
	Time          float64  `json:"time"`
	Compatibility int      `json:"compatibility"`
	Distance      *float64 `json:"distance"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

// Profile is a user with preloaded survey answers.
type Profile struct {
	User      *db.User
	Responses *repository.Responses
}

// PayloadBuilder turns two profiles into the "why you matched" payload.
//
// The percentages and the compatibility score are presentation values drawn
// from rng; a builder seeded the same way yields the same payloads.
type PayloadBuilder struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewPayloadBuilder(rng *rand.Rand, now func() time.Time) *PayloadBuilder {
	return &PayloadBuilder{rng: rng, now: now}
}

// BuildMatchPayload builds the payload addressed to user describing partner.
//
// Behavior:
//   - Numerical similarities: partner answers on the same side of the
//     average as user's, labelled trait1 below average and trait2 otherwise.
//     Categories without trait2 are skipped.
//   - Text similarities: identical answers labelled with trait1; "none",
//     "other" and "none/other" never count.
//   - Each list is de-duplicated by trait, first occurrence wins.
//   - Fewer than 3 numerical traits → the default traits are used instead.
//     Exactly 3 are returned, sampled without replacement.
//   - At most 3 text traits, sampled without replacement.
func (b *PayloadBuilder) BuildMatchPayload(matchID uint64, user, partner *Profile) MatchPayload {
	b.mu.Lock()
	defer b.mu.Unlock()

	numerical := b.numericalSimilarities(user.Responses, partner.Responses)
	if len(numerical) < similarityCount {
		numerical = b.defaultSimilarities()
	}
	numerical = sample(b.rng, numerical, similarityCount)

	text := textSimilarities(user.Responses, partner.Responses)
	text = sample(b.rng, text, similarityCount)

	return MatchPayload{
		MatchID:               matchID,
		ID:                    partner.User.ID,
		FirstName:             partner.User.FirstName,
		Email:                 partner.User.Email,
		Time:                  UnixSeconds(b.now()),
		Compatibility:         b.compatibility(),
		Distance:              distance(user.User, partner.User),
		Latitude:              partner.User.Latitude,
		Longitude:             partner.User.Longitude,
		NumericalSimilarities: numerical,
		TextSimilarities:      text,
	}
}

// BuildAcceptPayload builds the accept payload addressed to user describing
// partner. compatibility is the score announced when the match was created.
func (b *PayloadBuilder) BuildAcceptPayload(matchID uint64, user, partner *db.User, compatibility int) AcceptPayload {
	return AcceptPayload{
		MatchID:       matchID,
		ID:            partner.ID,
		FirstName:     partner.FirstName,
		Email:         partner.Email,
		Time:          UnixSeconds(b.now()),
		Compatibility: compatibility,
		Distance:      distance(user, partner),
		Latitude:      partner.Latitude,
		Longitude:     partner.Longitude,
	}
}

// FlipMatchPayload mirrors p for the other side of the match: identity and
// coordinates become other's and you/partner percents swap. Compatibility,
// distance and text similarities are shared by both sides.
func FlipMatchPayload(p MatchPayload, other *db.User) MatchPayload {
	flipped := p
	flipped.ID = other.ID
	flipped.FirstName = other.FirstName
	flipped.Email = other.Email
	flipped.Latitude = other.Latitude
	flipped.Longitude = other.Longitude

	flipped.NumericalSimilarities = make([]NumericalSimilarity, len(p.NumericalSimilarities))
	for i, s := range p.NumericalSimilarities {
		s.YouPercent, s.PartnerPercent = s.PartnerPercent, s.YouPercent
		flipped.NumericalSimilarities[i] = s
	}
	flipped.TextSimilarities = append([]TextSimilarity(nil), p.TextSimilarities...)
	return flipped
}

func (b *PayloadBuilder) numericalSimilarities(user, partner *repository.Responses) []NumericalSimilarity {
	if user == nil || partner == nil {
		return nil
	}
	theirs := make(map[uint64]*db.NumericalResponse, len(partner.Numerical))
	for i := range partner.Numerical {
		theirs[partner.Numerical[i].QuestionID] = &partner.Numerical[i]
	}

	var out []NumericalSimilarity
	seen := map[string]struct{}{}
	for _, mine := range user.Numerical {
		other, ok := theirs[mine.QuestionID]
		if !ok {
			continue
		}
		avg := other.Question.Average
		if !SameSide(mine.Answer, other.Answer, avg) {
			continue
		}
		category := other.Question.BaseQuestion.Category
		if category == nil || category.Trait1 == "" || category.Trait2 == nil || *category.Trait2 == "" {
			continue
		}
		trait := *category.Trait2
		if other.Answer < avg {
			trait = category.Trait1
		}
		if _, dup := seen[trait]; dup {
			continue
		}
		seen[trait] = struct{}{}
		out = append(out, b.similarity(trait))
	}
	return out
}

func textSimilarities(user, partner *repository.Responses) []TextSimilarity {
	if user == nil || partner == nil {
		return nil
	}
	theirs := make(map[uint64]*db.TextResponse, len(partner.Text))
	for i := range partner.Text {
		theirs[partner.Text[i].QuestionID] = &partner.Text[i]
	}

	var out []TextSimilarity
	seen := map[string]struct{}{}
	for _, mine := range user.Text {
		other, ok := theirs[mine.QuestionID]
		if !ok || other.Answer != mine.Answer {
			continue
		}
		if _, skip := noOpinionAnswers[strings.ToLower(strings.TrimSpace(other.Answer))]; skip {
			continue
		}
		category := other.Question.BaseQuestion.Category
		if category == nil || category.Trait1 == "" {
			continue
		}
		if _, dup := seen[category.Trait1]; dup {
			continue
		}
		seen[category.Trait1] = struct{}{}
		out = append(out, TextSimilarity{
			Trait:          category.Trait1,
			SharedResponse: other.Answer,
			Emoji:          emojiFor(other.Question.Choices, other.Answer),
		})
	}
	return out
}

func (b *PayloadBuilder) defaultSimilarities() []NumericalSimilarity {
	out := make([]NumericalSimilarity, 0, len(defaultTraits))
	for _, trait := range defaultTraits {
		out = append(out, b.similarity(trait))
	}
	return out
}

// similarity draws the display percents for one trait: you and partner in
// [85, 99] (partner +2 on a tie), population average in [35, 65].
func (b *PayloadBuilder) similarity(trait string) NumericalSimilarity {
	you := 85 + b.rng.IntN(15)
	partner := 85 + b.rng.IntN(15)
	if partner == you {
		partner += 2
	}
	return NumericalSimilarity{
		Trait:          trait,
		AvgPercent:     35 + b.rng.IntN(31),
		YouPercent:     you,
		PartnerPercent: partner,
	}
}

// compatibility is uniform in [90, 99].
func (b *PayloadBuilder) compatibility() int {
	return 90 + b.rng.IntN(10)
}

func emojiFor(choices []db.TextAnswerChoice, answer string) string {
	for _, c := range choices {
		if c.Answer == answer && c.Emoji != "" {
			return c.Emoji
		}
	}
	return defaultEmoji
}

// sample returns k items drawn without replacement. With k or fewer items
// it returns a copy in the original order.
func sample[T any](rng *rand.Rand, items []T, k int) []T {
	out := append([]T{}, items...)
	if len(out) <= k {
		return out
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out[:k]
}

func distance(a, b *db.User) *float64 {
	return geo.Distance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// UnixSeconds is the wire format of every timestamp: fractional unix seconds
// with millisecond precision.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}
