package survey

import (
	"github.com/oggyb/nearmatch/internal/db"
	"github.com/oggyb/nearmatch/internal/repository"
)

type ListQuestionsRequest struct{}

type Category struct {
	ID     uint64  `json:"id"`
	Trait1 string  `json:"trait1"`
	Trait2 *string `json:"trait2,omitempty"`
}

type Choice struct {
	Answer string `json:"answer"`
	Emoji  string `json:"emoji,omitempty"`
}

// Question is one survey question. ID is the id of the variant row and is
// what responses reference; Kind says which variant it is.
type Question struct {
	ID       uint64          `json:"id"`
	BaseID   uint64          `json:"base_id"`
	Kind     db.QuestionKind `json:"kind"`
	Header   string          `json:"header"`
	Prompt   string          `json:"prompt"`
	Category *Category       `json:"category,omitempty"`

	Average *float64 `json:"average,omitempty"`
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	IsMultipleAnswer bool     `json:"is_multiple_answer"`
	Choices          []Choice `json:"choices,omitempty"`
}

type ListQuestionsResponse struct {
	Questions []Question `json:"questions"`
}

// Answer carries exactly one of NumericalAnswer or TextAnswer, matching Kind.
type Answer struct {
	QuestionID      uint64          `json:"question_id"`
	Kind            db.QuestionKind `json:"kind"`
	NumericalAnswer *float64        `json:"numerical_answer,omitempty"`
	TextAnswer      *string         `json:"text_answer,omitempty"`
}

type SubmitResponsesRequest struct {
	Email     string   `json:"email"`
	Responses []Answer `json:"responses"`
}

type SubmitResponsesResponse struct {
	Saved int `json:"saved"`
}

func toQuestion(q repository.Question) Question {
	base := q.Base()
	out := Question{
		BaseID: base.ID,
		Kind:   q.Kind(),
		Header: base.Header,
		Prompt: base.Prompt,
	}
	if base.Category != nil {
		out.Category = &Category{ID: base.Category.ID, Trait1: base.Category.Trait1, Trait2: base.Category.Trait2}
	}

	switch v := q.(type) {
	case repository.NumericalQuestion:
		out.ID = v.ID
		out.Average, out.Minimum, out.Maximum = &v.Average, &v.Minimum, &v.Maximum
	case repository.TextQuestion:
		out.ID = v.ID
		out.IsMultipleAnswer = v.IsMultipleAnswer
		for _, c := range v.Choices {
			out.Choices = append(out.Choices, Choice{Answer: c.Answer, Emoji: c.Emoji})
		}
	}
	return out
}
