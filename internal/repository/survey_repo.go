package repository

import (
	"context"
	"fmt"

	"github.com/oggyb/nearmatch/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Question is the tagged union of the two question variants.
// The concrete type is *db.NumericalQuestion or *db.TextQuestion, chosen by
// BaseQuestion.Kind.
type Question interface {
	Base() *db.BaseQuestion
	Kind() db.QuestionKind
}

type NumericalQuestion struct{ *db.NumericalQuestion }

func (q NumericalQuestion) Base() *db.BaseQuestion { return &q.BaseQuestion }
func (q NumericalQuestion) Kind() db.QuestionKind  { return db.KindNumerical }

type TextQuestion struct{ *db.TextQuestion }

func (q TextQuestion) Base() *db.BaseQuestion { return &q.BaseQuestion }
func (q TextQuestion) Kind() db.QuestionKind  { return db.KindText }

// NumericalQuestionSpec carries the optional numeric parameters of a new
// question. Nil fields take the defaults 3 / 1 / 0 / 6.
type NumericalQuestionSpec struct {
	Average, Variance, Minimum, Maximum *float64
}

// SurveyRepository covers categories, questions and responses.
type SurveyRepository struct {
	db *gorm.DB
}

func NewSurveyRepository(database *gorm.DB) *SurveyRepository {
	return &SurveyRepository{db: database}
}

func (r *SurveyRepository) WithTx(tx *gorm.DB) *SurveyRepository {
	return &SurveyRepository{db: tx}
}

func (r *SurveyRepository) CreateCategory(ctx context.Context, trait1 string, trait2 *string) (*db.Category, error) {
	c := &db.Category{Trait1: trait1, Trait2: trait2}
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// CreateNumericalQuestion inserts the base row and its numerical variant.
func (r *SurveyRepository) CreateNumericalQuestion(
	ctx context.Context,
	base db.BaseQuestion,
	spec NumericalQuestionSpec,
) (*db.NumericalQuestion, error) {
	q := &db.NumericalQuestion{
		Average:  valueOr(spec.Average, 3),
		Variance: valueOr(spec.Variance, 1),
		Minimum:  valueOr(spec.Minimum, 0),
		Maximum:  valueOr(spec.Maximum, 6),
	}
	if q.Minimum > q.Maximum {
		return nil, fmt.Errorf("numerical question minimum %v exceeds maximum %v", q.Minimum, q.Maximum)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		base.Kind = db.KindNumerical
		if err := tx.Omit(clause.Associations).Create(&base).Error; err != nil {
			return err
		}
		q.BaseQuestionID = base.ID
		if err := tx.Omit(clause.Associations).Create(q).Error; err != nil {
			return err
		}
		q.BaseQuestion = base
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// CreateTextQuestion inserts the base row, the text variant and its choices.
// No choices means free-text answers.
func (r *SurveyRepository) CreateTextQuestion(
	ctx context.Context,
	base db.BaseQuestion,
	multipleAnswer bool,
	choices []db.TextAnswerChoice,
) (*db.TextQuestion, error) {
	q := &db.TextQuestion{IsMultipleAnswer: multipleAnswer}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		base.Kind = db.KindText
		if err := tx.Omit(clause.Associations).Create(&base).Error; err != nil {
			return err
		}
		q.BaseQuestionID = base.ID
		if err := tx.Omit(clause.Associations).Create(q).Error; err != nil {
			return err
		}
		for i := range choices {
			choices[i].ID = 0
			choices[i].QuestionID = q.ID
		}
		if len(choices) > 0 {
			if err := tx.Create(&choices).Error; err != nil {
				return err
			}
		}
		q.BaseQuestion = base
		q.Choices = choices
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ListQuestions returns every question, numerical variants first.
func (r *SurveyRepository) ListQuestions(ctx context.Context) ([]Question, error) {
	var numerical []db.NumericalQuestion
	if err := r.db.WithContext(ctx).
		Preload("BaseQuestion.Category").
		Order("id ASC").
		Find(&numerical).Error; err != nil {
		return nil, err
	}

	var text []db.TextQuestion
	if err := r.db.WithContext(ctx).
		Preload("BaseQuestion.Category").
		Preload("Choices", func(q *gorm.DB) *gorm.DB { return q.Order("id ASC") }).
		Order("id ASC").
		Find(&text).Error; err != nil {
		return nil, err
	}

	out := make([]Question, 0, len(numerical)+len(text))
	for i := range numerical {
		out = append(out, NumericalQuestion{&numerical[i]})
	}
	for i := range text {
		out = append(out, TextQuestion{&text[i]})
	}
	return out, nil
}

// GetNumericalQuestion loads a numerical question by its own id.
func (r *SurveyRepository) GetNumericalQuestion(ctx context.Context, id uint64) (*db.NumericalQuestion, error) {
	var q db.NumericalQuestion
	if err := r.db.WithContext(ctx).Preload("BaseQuestion").First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// GetTextQuestion loads a text question by its own id, with choices.
func (r *SurveyRepository) GetTextQuestion(ctx context.Context, id uint64) (*db.TextQuestion, error) {
	var q db.TextQuestion
	if err := r.db.WithContext(ctx).Preload("BaseQuestion").Preload("Choices").First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// SaveNumericalResponse inserts or replaces the user's answer to a question.
//
// Behavior:
//   - If (user_id, question_id) exists → answer is overwritten.
//   - Otherwise a new row is inserted.
func (r *SurveyRepository) SaveNumericalResponse(ctx context.Context, userID, questionID uint64, answer float64) error {
	resp := db.NumericalResponse{UserID: userID, QuestionID: questionID, Answer: answer}
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"answer", "updated_at"}),
		}).
		Create(&resp).Error
}

// SaveTextResponse is SaveNumericalResponse for text answers.
func (r *SurveyRepository) SaveTextResponse(ctx context.Context, userID, questionID uint64, answer string) error {
	resp := db.TextResponse{UserID: userID, QuestionID: questionID, Answer: answer}
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"answer", "updated_at"}),
		}).
		Create(&resp).Error
}

// Responses holds the preloaded answers of one user.
type Responses struct {
	Numerical []db.NumericalResponse
	Text      []db.TextResponse
}

// ResponsesForUsers loads all answers of the given users with their
// question, category and choices, keyed by user id. Users without answers
// get an empty entry.
func (r *SurveyRepository) ResponsesForUsers(ctx context.Context, userIDs []uint64) (map[uint64]*Responses, error) {
	out := make(map[uint64]*Responses, len(userIDs))
	for _, id := range userIDs {
		out[id] = &Responses{}
	}
	if len(userIDs) == 0 {
		return out, nil
	}

	var numerical []db.NumericalResponse
	if err := r.db.WithContext(ctx).
		Preload("Question.BaseQuestion.Category").
		Where("user_id IN ?", userIDs).
		Order("id ASC").
		Find(&numerical).Error; err != nil {
		return nil, err
	}

	var text []db.TextResponse
	if err := r.db.WithContext(ctx).
		Preload("Question.BaseQuestion.Category").
		Preload("Question.Choices").
		Where("user_id IN ?", userIDs).
		Order("id ASC").
		Find(&text).Error; err != nil {
		return nil, err
	}

	for _, n := range numerical {
		out[n.UserID].Numerical = append(out[n.UserID].Numerical, n)
	}
	for _, t := range text {
		out[t.UserID].Text = append(out[t.UserID].Text, t)
	}
	return out, nil
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
