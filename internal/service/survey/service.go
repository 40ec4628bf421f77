package survey

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/nearmatch/internal/app"
	"github.com/oggyb/nearmatch/internal/db"
	svcErr "github.com/oggyb/nearmatch/internal/errors"
	"github.com/oggyb/nearmatch/internal/repository"
)

// Service implements the Survey gRPC API.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
	survey *repository.SurveyRepository
}

func NewSurveyService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
		survey: repository.NewSurveyRepository(appCtx.DB),
	}
}

// ListQuestions returns every question, numerical ones first, text ones with
// their answer choices.
func (s *Service) ListQuestions(ctx context.Context, _ *ListQuestionsRequest) (*ListQuestionsResponse, error) {
	questions, err := s.survey.ListQuestions(ctx)
	if err != nil {
		s.appCtx.Logger.Error("ListQuestions failed", "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &ListQuestionsResponse{Questions: make([]Question, 0, len(questions))}
	for _, q := range questions {
		resp.Questions = append(resp.Questions, toQuestion(q))
	}
	return resp, nil
}

// SubmitResponses stores the caller's answers.
//
// Behavior:
//   - Every answer is validated before anything is written; problems are
//     reported per index as responses[i].
//   - Numerical answers must lie within the question's minimum..maximum.
//   - Text answers to questions with choices must be one of the choices;
//     multiple-answer questions take a comma-separated list of choices.
//   - Answering a question again replaces the earlier answer.
//
// Example:
//
//	svc.SubmitResponses(ctx, &SubmitResponsesRequest{Email: "a@usc.edu", Responses: []Answer{{QuestionID: 1, Kind: "numerical", NumericalAnswer: &v}}})
func (s *Service) SubmitResponses(ctx context.Context, req *SubmitResponsesRequest) (*SubmitResponsesResponse, error) {
	s.appCtx.Logger.Debug("SubmitResponses called", "email", req.Email, "count", len(req.Responses))

	user, err := s.users.GetByEmail(ctx, req.Email)
	if svcErr.IsNotFound(err) {
		return nil, svcErr.Map(svcErr.Field("email", "email does not exist"))
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if len(req.Responses) == 0 {
		return nil, svcErr.Map(svcErr.Field("responses", "at least one response is required"))
	}

	bad := map[string]string{}
	for i, a := range req.Responses {
		msg, err := s.validate(ctx, a)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		if msg != "" {
			bad[fmt.Sprintf("responses[%d]", i)] = msg
		}
	}
	if len(bad) > 0 {
		return nil, svcErr.Map(svcErr.Fields(bad))
	}

	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		survey := s.survey.WithTx(tx)
		for _, a := range req.Responses {
			var err error
			if a.Kind == db.KindNumerical {
				err = survey.SaveNumericalResponse(ctx, user.ID, a.QuestionID, *a.NumericalAnswer)
			} else {
				err = survey.SaveTextResponse(ctx, user.ID, a.QuestionID, strings.TrimSpace(*a.TextAnswer))
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.appCtx.Logger.Error("SubmitResponses failed", "user_id", user.ID, "err", err)
		return nil, svcErr.Map(err)
	}
	return &SubmitResponsesResponse{Saved: len(req.Responses)}, nil
}

// validate returns a user-facing message for a bad answer, or "".
func (s *Service) validate(ctx context.Context, a Answer) (string, error) {
	switch a.Kind {
	case db.KindNumerical:
		if a.NumericalAnswer == nil {
			return "numerical_answer is required", nil
		}
		q, err := s.survey.GetNumericalQuestion(ctx, a.QuestionID)
		if svcErr.IsNotFound(err) {
			return "question does not exist", nil
		}
		if err != nil {
			return "", err
		}
		if v := *a.NumericalAnswer; v < q.Minimum || v > q.Maximum {
			return fmt.Sprintf("answer must be between %g and %g", q.Minimum, q.Maximum), nil
		}
		return "", nil

	case db.KindText:
		if a.TextAnswer == nil || strings.TrimSpace(*a.TextAnswer) == "" {
			return "text_answer is required", nil
		}
		q, err := s.survey.GetTextQuestion(ctx, a.QuestionID)
		if svcErr.IsNotFound(err) {
			return "question does not exist", nil
		}
		if err != nil {
			return "", err
		}
		if len(q.Choices) == 0 {
			return "", nil
		}
		answer := strings.TrimSpace(*a.TextAnswer)
		parts := []string{answer}
		if q.IsMultipleAnswer {
			parts = strings.Split(answer, ",")
		}
		for _, p := range parts {
			if !slices.ContainsFunc(q.Choices, func(c db.TextAnswerChoice) bool { return c.Answer == strings.TrimSpace(p) }) {
				return fmt.Sprintf("%q is not one of the choices", strings.TrimSpace(p)), nil
			}
		}
		return "", nil
	}
	return "kind must be numerical or text", nil
}
