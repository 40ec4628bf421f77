package matchmaker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oggyb/nearmatch/internal/app"
	"github.com/oggyb/nearmatch/internal/db"
	svcErr "github.com/oggyb/nearmatch/internal/errors"
	"github.com/oggyb/nearmatch/internal/matching"
	"github.com/oggyb/nearmatch/internal/repository"
)

const notificationPageSize = 20

// Service implements the Matchmaker gRPC API: location updates that drive
// matching, acceptance, and the user's notification feed.
type Service struct {
	appCtx  *app.AppContext
	engine  *matching.Engine
	manager *matching.Manager

	users *repository.UserRepository
	notes *repository.NotificationRepository
}

// NewMatchmakerService creates a new Matchmaker service with dependencies
// from AppContext. builder supplies the randomness of match payloads.
func NewMatchmakerService(appCtx *app.AppContext, builder *matching.PayloadBuilder) *Service {
	manager := matching.NewManager(appCtx, builder)
	return &Service{
		appCtx:  appCtx,
		engine:  matching.NewEngine(appCtx, manager),
		manager: manager,
		users:   repository.NewUserRepository(appCtx.DB),
		notes:   repository.NewNotificationRepository(appCtx.DB),
	}
}

// UpdateLocation stores the caller's position and lists who is around.
//
// Behavior:
//   - Latitude and longitude are required.
//   - When a match is made it is returned as match_id; no match is not an error.
//
// Example:
//
//	svc.UpdateLocation(ctx, &UpdateLocationRequest{Email: "a@usc.edu", Latitude: &lat, Longitude: &lng})
func (s *Service) UpdateLocation(ctx context.Context, req *UpdateLocationRequest) (*UpdateLocationResponse, error) {
	s.appCtx.Logger.Debug("UpdateLocation called", "email", req.Email)

	missing := map[string]string{}
	if req.Latitude == nil {
		missing["latitude"] = "latitude is required"
	}
	if req.Longitude == nil {
		missing["longitude"] = "longitude is required"
	}
	if len(missing) > 0 {
		return nil, svcErr.Map(svcErr.Fields(missing))
	}

	res, err := s.engine.UpdateLocation(ctx, matching.LocationUpdate{
		Email:     req.Email,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	})
	if err != nil {
		s.appCtx.Logger.Error("UpdateLocation failed", "email", req.Email, "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &UpdateLocationResponse{Nearby: res.Nearby}
	if res.Match != nil {
		resp.MatchID = &res.Match.ID
	}
	s.appCtx.Logger.Debug("UpdateLocation result", "nearby", len(resp.Nearby), "matched", resp.MatchID != nil)
	return resp, nil
}

// AcceptMatch records that the caller wants to meet partner_id.
//
// Behavior:
//   - No match between the two → NotFound.
//   - Match past its expiry window → FailedPrecondition.
//   - Accepting twice is harmless; the accept notifications go out once.
func (s *Service) AcceptMatch(ctx context.Context, req *AcceptMatchRequest) (*MatchResponse, error) {
	s.appCtx.Logger.Debug("AcceptMatch called", "email", req.Email, "partner", req.PartnerID)

	user, err := s.userByEmail(ctx, "email", req.Email)
	if err != nil {
		return nil, mapErr(err)
	}
	if req.PartnerID == 0 || req.PartnerID == user.ID {
		return nil, svcErr.Map(svcErr.Field("partner_id", "partner_id must reference another user"))
	}

	m, err := s.manager.Accept(ctx, user.ID, req.PartnerID)
	if err != nil {
		return nil, mapErr(err)
	}
	return toMatchResponse(m), nil
}

// ForceCreateMatch replaces any match between the two users with a fresh one
// and sends the initial notifications.
func (s *Service) ForceCreateMatch(ctx context.Context, req *ForceCreateMatchRequest) (*MatchResponse, error) {
	s.appCtx.Logger.Debug("ForceCreateMatch called", "email1", req.Email1, "email2", req.Email2)

	if strings.EqualFold(strings.TrimSpace(req.Email1), strings.TrimSpace(req.Email2)) {
		return nil, svcErr.Map(svcErr.Field("email2", "cannot match a user with themselves"))
	}
	u1, err1 := s.userByEmail(ctx, "email1", req.Email1)
	u2, err2 := s.userByEmail(ctx, "email2", req.Email2)
	if err1 != nil || err2 != nil {
		if isField(err1) || isField(err2) {
			return nil, svcErr.Map(svcErr.Fields(map[string]string{
				"email1": "email1 or email2 does not exist",
				"email2": "email1 or email2 does not exist",
			}))
		}
		return nil, mapErr(errors.Join(err1, err2))
	}

	m, err := s.manager.ForceCreate(ctx, u1, u2)
	if err != nil {
		s.appCtx.Logger.Error("ForceCreateMatch failed", "err", err)
		return nil, mapErr(err)
	}
	return toMatchResponse(m), nil
}

// StopSharing forgets the caller's location and takes them out of matching.
func (s *Service) StopSharing(ctx context.Context, req *StopSharingRequest) (*StopSharingResponse, error) {
	s.appCtx.Logger.Debug("StopSharing called", "email", req.Email)

	user, err := s.userByEmail(ctx, "email", req.Email)
	if err != nil {
		return nil, mapErr(err)
	}
	if err := s.manager.StopSharing(ctx, user.ID); err != nil {
		return nil, mapErr(err)
	}
	return &StopSharingResponse{}, nil
}

// ListNotifications returns the caller's notifications, newest first.
//
// Behavior:
//   - Pages of 20; next_pagination_token is set while more remain.
//   - An unknown token → InvalidArgument on pagination_token.
func (s *Service) ListNotifications(ctx context.Context, req *ListNotificationsRequest) (*ListNotificationsResponse, error) {
	s.appCtx.Logger.Debug("ListNotifications called", "email", req.Email)

	user, err := s.userByEmail(ctx, "email", req.Email)
	if err != nil {
		return nil, mapErr(err)
	}

	notes, next, err := s.notes.ListForUser(ctx, user.ID, req.PaginationToken, notificationPageSize)
	if err != nil {
		return nil, mapErr(err)
	}

	resp := &ListNotificationsResponse{Notifications: make([]Notification, 0, len(notes)), NextPaginationToken: next}
	for _, n := range notes {
		resp.Notifications = append(resp.Notifications, Notification{
			ID:      n.ID,
			Type:    n.Type,
			Message: n.Message,
			Data:    json.RawMessage(n.Data),
			Sound:   n.Sound,
			Time:    matching.UnixSeconds(n.Time),
		})
	}
	return resp, nil
}

func (s *Service) userByEmail(ctx context.Context, field, email string) (*db.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if svcErr.IsNotFound(err) {
		return nil, svcErr.Field(field, "email does not exist")
	}
	return u, err
}

func isField(err error) bool {
	var fe *svcErr.FieldError
	return errors.As(err, &fe)
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotPaired):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, matching.ErrMatchExpired):
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return svcErr.Map(err)
}
