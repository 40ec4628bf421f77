package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/oggyb/nearmatch/internal/app"
	"github.com/oggyb/nearmatch/internal/db"
	svcErr "github.com/oggyb/nearmatch/internal/errors"
	"github.com/oggyb/nearmatch/internal/geo"
	"github.com/oggyb/nearmatch/internal/repository"
)

// LocationUpdate is one position report from a user's device.
type LocationUpdate struct {
	Email     string
	Latitude  float64
	Longitude float64
}

// NearbyUser is the public summary of a user found around a position.
type NearbyUser struct {
	ID            uint64 `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	SexIdentity   db.Sex `json:"sex_identity"`
	SexPreference db.Sex `json:"sex_preference"`
}

// LocationResult lists who is around and the match created, if any.
type LocationResult struct {
	Nearby []NearbyUser
	Match  *db.Match
}

// Engine runs matching on location updates:
// geo box → eligibility → compatibility → Manager.Create.
type Engine struct {
	appCtx  *app.AppContext
	manager *Manager
	filter  CompatibilityFilter

	users   *repository.UserRepository
	matches *repository.MatchRepository
	survey  *repository.SurveyRepository
}

func NewEngine(appCtx *app.AppContext, manager *Manager) *Engine {
	return &Engine{
		appCtx:  appCtx,
		manager: manager,
		filter: CompatibilityFilter{
			MinNumerical: appCtx.Config.Match.MinNumerical,
			MinText:      appCtx.Config.Match.MinText,
		},
		users:   repository.NewUserRepository(appCtx.DB),
		matches: repository.NewMatchRepository(appCtx.DB),
		survey:  repository.NewSurveyRepository(appCtx.DB),
	}
}

// UpdateLocation stores the user's position and tries to match them.
//
// Behavior:
//   - Invalid coordinates or an unknown email → field error.
//   - The position is always stored, even when no match is attempted.
//   - Unmatchable or cooling-down users are not matched.
//   - No candidate surviving the filters is not an error.
//   - The first qualifying candidate by id wins.
func (e *Engine) UpdateLocation(ctx context.Context, in LocationUpdate) (*LocationResult, error) {
	if err := validateCoordinates(in.Latitude, in.Longitude); err != nil {
		return nil, err
	}

	user, err := e.users.GetByEmail(ctx, in.Email)
	if svcErr.IsNotFound(err) {
		return nil, svcErr.Field("email", "email does not exist")
	}
	if err != nil {
		return nil, err
	}

	now := e.appCtx.Now()
	if err := e.users.UpdateLocation(ctx, user.ID, in.Latitude, in.Longitude, now); err != nil {
		return nil, fmt.Errorf("store location: %w", err)
	}
	lat, lng := in.Latitude, in.Longitude
	user.Latitude, user.Longitude, user.LocUpdateTime = &lat, &lng, now

	cfg := e.appCtx.Config.Match
	candidates, err := e.users.FindNearby(ctx, lat, lng, cfg.BoxDegrees, now.Add(-cfg.Freshness))
	if err != nil {
		return nil, fmt.Errorf("find nearby: %w", err)
	}

	result := &LocationResult{Nearby: make([]NearbyUser, 0, len(candidates))}
	for _, c := range candidates {
		if c.ID == user.ID {
			continue
		}
		result.Nearby = append(result.Nearby, NearbyUser{
			ID:            c.ID,
			FirstName:     c.FirstName,
			LastName:      c.LastName,
			SexIdentity:   c.SexIdentity,
			SexPreference: c.SexPreference,
		})
	}

	if !user.IsMatchable {
		return result, nil
	}
	cooling, err := e.coolingDown(ctx, user.ID, now)
	if err != nil {
		return nil, err
	}
	if cooling {
		e.appCtx.Logger.Debug("user cooling down", "user_id", user.ID)
		return result, nil
	}

	partner, err := e.pickPartner(ctx, user, candidates)
	if err != nil || partner == nil {
		return result, err
	}

	match, _, err := e.manager.Create(ctx, user, partner)
	if err != nil {
		return nil, err
	}
	result.Match = match
	return result, nil
}

// pickPartner applies the eligibility and compatibility filters.
func (e *Engine) pickPartner(ctx context.Context, user *db.User, candidates []db.User) (*db.User, error) {
	paired, err := e.matches.PairedUserIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	eligible := Eligible(user, candidates, paired)
	if len(eligible) == 0 {
		return nil, nil
	}

	ids := make([]uint64, 0, len(eligible)+1)
	ids = append(ids, user.ID)
	for _, c := range eligible {
		ids = append(ids, c.ID)
	}
	responses, err := e.survey.ResponsesForUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	return e.filter.First(responses[user.ID], eligible, responses), nil
}

// coolingDown reports whether the user's latest match is still live.
// Redis is consulted first; on a miss the database decides and the answer
// is cached for the rest of the window.
func (e *Engine) coolingDown(ctx context.Context, userID uint64, now time.Time) (bool, error) {
	rc := e.appCtx.RedisCache
	if rc != nil {
		cached, err := rc.InCooldown(ctx, userID)
		if err != nil {
			e.appCtx.Logger.Warn("cooldown cache read failed", "user_id", userID, "err", err)
		} else if cached {
			return true, nil
		}
	}

	latest, err := e.matches.Latest(ctx, userID)
	if err != nil {
		return false, err
	}
	expiry := e.appCtx.Config.Match.Expiry
	if latest == nil || latest.HasExpired(now, expiry) {
		return false, nil
	}

	if rc != nil {
		ttl := min(e.appCtx.Config.Match.CooldownCacheTTL, expiry-now.Sub(latest.Time))
		if err := rc.MarkCooldown(ctx, userID, latest.ID, ttl); err != nil {
			e.appCtx.Logger.Warn("cooldown cache write failed", "user_id", userID, "err", err)
		}
	}
	return true, nil
}

func validateCoordinates(lat, lng float64) error {
	bad := map[string]string{}
	if !geo.ValidLatitude(lat) {
		bad["latitude"] = "must be between -90 and 90"
	}
	if !geo.ValidLongitude(lng) {
		bad["longitude"] = "must be between -180 and 180"
	}
	if len(bad) > 0 {
		return svcErr.Fields(bad)
	}
	return nil
}
