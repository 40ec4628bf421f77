package matching

import (
	"github.com/oggyb/nearmatch/internal/db"
	"github.com/oggyb/nearmatch/internal/repository"
)

func strptr(s string) *string { return &s }

func newCategory(trait1 string, trait2 *string) *db.Category {
	return &db.Category{Trait1: trait1, Trait2: trait2}
}

func numResp(questionID uint64, answer, average float64, c *db.Category) db.NumericalResponse {
	return db.NumericalResponse{
		QuestionID: questionID,
		Answer:     answer,
		Question: db.NumericalQuestion{
			ID:           questionID,
			Average:      average,
			BaseQuestion: db.BaseQuestion{Category: c},
		},
	}
}

func textResp(questionID uint64, answer string, c *db.Category, choices ...db.TextAnswerChoice) db.TextResponse {
	return db.TextResponse{
		QuestionID: questionID,
		Answer:     answer,
		Question: db.TextQuestion{
			ID:           questionID,
			BaseQuestion: db.BaseQuestion{Category: c},
			Choices:      choices,
		},
	}
}

func answers(n []db.NumericalResponse, t []db.TextResponse) *repository.Responses {
	return &repository.Responses{Numerical: n, Text: t}
}
