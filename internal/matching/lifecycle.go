package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/oggyb/nearmatch/internal/analytics"
	"github.com/oggyb/nearmatch/internal/app"
	"github.com/oggyb/nearmatch/internal/db"
	"github.com/oggyb/nearmatch/internal/notify"
	"github.com/oggyb/nearmatch/internal/repository"
)

// MatchSound is the sound cue attached to match notifications.
const MatchSound = "matchsound.wav"

// ErrMatchExpired is returned when accepting a match past its window.
var ErrMatchExpired = errors.New("match has expired")

// Manager owns the life of a Match: creation, the initial notification
// pair, acceptance and the accept notification pair.
//
// Rows are written inside one transaction; pushes and analytics happen only
// after commit and never roll anything back.
type Manager struct {
	appCtx  *app.AppContext
	builder *PayloadBuilder

	users   *repository.UserRepository
	matches *repository.MatchRepository
	survey  *repository.SurveyRepository
	notes   *repository.NotificationRepository
}

func NewManager(appCtx *app.AppContext, builder *PayloadBuilder) *Manager {
	return &Manager{
		appCtx:  appCtx,
		builder: builder,
		users:   repository.NewUserRepository(appCtx.DB),
		matches: repository.NewMatchRepository(appCtx.DB),
		survey:  repository.NewSurveyRepository(appCtx.DB),
		notes:   repository.NewNotificationRepository(appCtx.DB),
	}
}

// Create matches a and b and sends the initial notification pair.
//
// Behavior:
//   - Pair already matched → (nil, false, nil).
//   - Another request holds the pair lock → (nil, false, nil).
//   - Match row, notification rows and the sent flag commit together.
//   - After commit: pushes, analytics, cooldown markers for both users.
func (m *Manager) Create(ctx context.Context, a, b *db.User) (*db.Match, bool, error) {
	if m.appCtx.RedisCache != nil {
		ok, release, err := m.appCtx.RedisCache.AcquirePairLock(ctx, a.ID, b.ID, m.appCtx.Config.Match.LockTTL)
		if err != nil {
			m.appCtx.Logger.Debug("pair lock unavailable", "user1", a.ID, "user2", b.ID, "err", err)
		} else if !ok {
			m.appCtx.Logger.Debug("pair lock busy", "user1", a.ID, "user2", b.ID)
			return nil, false, nil
		}
		defer release()
	}

	var (
		match   *db.Match
		created bool
		sent    *initialNotice
	)
	err := m.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		match, created, err = m.matches.WithTx(tx).CreateIfAbsent(ctx, a, b, m.appCtx.Now())
		if err != nil || !created {
			return err
		}
		sent, err = m.sendInitial(ctx, tx, match)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("create match: %w", err)
	}
	if !created {
		m.appCtx.Logger.Debug("pair already matched", "user1", a.ID, "user2", b.ID)
		return nil, false, nil
	}

	m.appCtx.Logger.Info("match created",
		"match_id", match.ID,
		"user1", match.User1ID,
		"user2", match.User2ID,
		"compatibility", match.Compatibility,
	)
	m.afterInitial(ctx, match, sent)
	return match, true, nil
}

// NotifyInitial sends the initial notification pair for an existing match.
// Returns false when the pair was already sent.
func (m *Manager) NotifyInitial(ctx context.Context, matchID uint64) (bool, error) {
	var (
		match *db.Match
		sent  *initialNotice
	)
	err := m.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		match, err = m.matches.WithTx(tx).GetByID(ctx, matchID)
		if err != nil {
			return err
		}
		sent, err = m.sendInitial(ctx, tx, match)
		return err
	})
	if err != nil {
		return false, err
	}
	if sent == nil {
		return false, nil
	}
	m.afterInitial(ctx, match, sent)
	return true, nil
}

// Accept records userID's acceptance of the match with partnerID. Once both
// sides accepted, the accept notification pair is sent exactly once.
func (m *Manager) Accept(ctx context.Context, userID, partnerID uint64) (*db.Match, error) {
	var (
		match *db.Match
		sent  []db.Notification
	)
	err := m.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		matches := m.matches.WithTx(tx)

		var err error
		match, err = matches.FindPair(ctx, userID, partnerID)
		if err != nil {
			return err
		}
		if match.HasExpired(m.appCtx.Now(), m.appCtx.Config.Match.Expiry) {
			return ErrMatchExpired
		}
		if err := matches.SetAccepted(ctx, match, userID); err != nil {
			return err
		}
		if !match.User1Accepted || !match.User2Accepted {
			return nil
		}

		claimed, err := matches.ClaimAcceptNotification(ctx, match.ID)
		if err != nil || !claimed {
			return err
		}
		match.AcceptNotificationSent = true

		sent, err = m.acceptNotifications(match)
		if err != nil {
			return err
		}
		return m.notes.WithTx(tx).CreateBatch(ctx, sent)
	})
	if err != nil {
		return nil, err
	}

	if len(sent) > 0 {
		m.appCtx.Logger.Info("match accepted", "match_id", match.ID)
		notify.Dispatch(ctx, m.appCtx.Pusher, m.appCtx.Logger, sent)
		m.track(ctx, match.User1ID, analytics.EventMatchSuccess, nil)
		m.track(ctx, match.User2ID, analytics.EventMatchSuccess, nil)
	}
	return match, nil
}

// ForceCreate replaces any existing match between a and b with a new one.
func (m *Manager) ForceCreate(ctx context.Context, a, b *db.User) (*db.Match, error) {
	if err := m.matches.DeletePair(ctx, a.ID, b.ID); err != nil {
		return nil, err
	}
	if m.appCtx.RedisCache != nil {
		if err := m.appCtx.RedisCache.ClearCooldown(ctx, a.ID, b.ID); err != nil {
			m.appCtx.Logger.Warn("clear cooldown failed", "err", err)
		}
	}

	match, created, err := m.Create(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if !created {
		// lost a race to a concurrent create; report the stored row
		return m.matches.FindPair(ctx, a.ID, b.ID)
	}
	return match, nil
}

// StopSharing forgets userID's location and makes them unmatchable. When
// their latest match is still live, both sides get a stop notification.
func (m *Manager) StopSharing(ctx context.Context, userID uint64) error {
	var sent []db.Notification
	err := m.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := m.users.WithTx(tx)
		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if err := users.ClearLocation(ctx, userID); err != nil {
			return err
		}

		latest, err := m.matches.WithTx(tx).Latest(ctx, userID)
		if err != nil || latest == nil {
			return err
		}
		if latest.HasExpired(m.appCtx.Now(), m.appCtx.Config.Match.Expiry) {
			return nil
		}

		partnerID := latest.Partner(userID)
		data, err := json.Marshal(map[string]uint64{"match_id": latest.ID, "id": userID})
		if err != nil {
			return err
		}
		now := m.appCtx.Now()
		sent = []db.Notification{
			{
				UserID:  userID,
				Type:    db.NotificationStopShare,
				Message: "you stopped sharing your location",
				Data:    datatypes.JSON(data),
				Time:    now,
			},
			{
				UserID:  partnerID,
				Type:    db.NotificationStopShare,
				Message: fmt.Sprintf("%s stopped sharing their location", user.FirstName),
				Data:    datatypes.JSON(data),
				Time:    now,
			},
		}
		return m.notes.WithTx(tx).CreateBatch(ctx, sent)
	})
	if err != nil {
		return err
	}

	if m.appCtx.RedisCache != nil {
		if err := m.appCtx.RedisCache.ClearCooldown(ctx, userID); err != nil {
			m.appCtx.Logger.Warn("clear cooldown failed", "user_id", userID, "err", err)
		}
	}
	notify.Dispatch(ctx, m.appCtx.Pusher, m.appCtx.Logger, sent)
	return nil
}

// initialNotice is what sendInitial committed, kept for post-commit work.
type initialNotice struct {
	notifications []db.Notification
	payload       MatchPayload
	flipped       MatchPayload
}

// sendInitial claims the initial notification of match and writes the
// notification pair through tx. Nil when the pair was already claimed.
func (m *Manager) sendInitial(ctx context.Context, tx *gorm.DB, match *db.Match) (*initialNotice, error) {
	matches := m.matches.WithTx(tx)

	claimed, err := matches.ClaimInitialNotification(ctx, match.ID)
	if err != nil || !claimed {
		return nil, err
	}
	match.InitialNotificationSent = true

	responses, err := m.survey.WithTx(tx).ResponsesForUsers(ctx, []uint64{match.User1ID, match.User2ID})
	if err != nil {
		return nil, err
	}
	user1 := &Profile{User: &match.User1, Responses: responses[match.User1ID]}
	user2 := &Profile{User: &match.User2, Responses: responses[match.User2ID]}

	// user1 reads about user2; user2 gets the mirrored copy
	payload := m.builder.BuildMatchPayload(match.ID, user1, user2)
	flipped := FlipMatchPayload(payload, &match.User1)

	match.Compatibility = payload.Compatibility
	if err := matches.SetCompatibility(ctx, match.ID, payload.Compatibility); err != nil {
		return nil, err
	}

	data1, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	data2, err := json.Marshal(flipped)
	if err != nil {
		return nil, err
	}

	sound := MatchSound
	now := m.appCtx.Now()
	notifications := []db.Notification{
		{
			UserID:  match.User1ID,
			Type:    db.NotificationMatch,
			Message: matchMessage(match.User2.FirstName, payload.Compatibility),
			Data:    datatypes.JSON(data1),
			Sound:   &sound,
			Time:    now,
		},
		{
			UserID:  match.User2ID,
			Type:    db.NotificationMatch,
			Message: matchMessage(match.User1.FirstName, payload.Compatibility),
			Data:    datatypes.JSON(data2),
			Sound:   &sound,
			Time:    now,
		},
	}
	if err := m.notes.WithTx(tx).CreateBatch(ctx, notifications); err != nil {
		return nil, err
	}
	return &initialNotice{notifications: notifications, payload: payload, flipped: flipped}, nil
}

func (m *Manager) afterInitial(ctx context.Context, match *db.Match, sent *initialNotice) {
	notify.Dispatch(ctx, m.appCtx.Pusher, m.appCtx.Logger, sent.notifications)

	m.track(ctx, match.User1ID, analytics.EventMatchCreate, matchCreateProps(match, sent.payload, sent.payload))
	m.track(ctx, match.User2ID, analytics.EventMatchCreate, matchCreateProps(match, sent.payload, sent.flipped))

	if m.appCtx.RedisCache == nil {
		return
	}
	ttl := m.appCtx.Config.Match.CooldownCacheTTL
	if expiry := m.appCtx.Config.Match.Expiry; expiry < ttl {
		ttl = expiry
	}
	for _, id := range []uint64{match.User1ID, match.User2ID} {
		if err := m.appCtx.RedisCache.MarkCooldown(ctx, id, match.ID, ttl); err != nil {
			m.appCtx.Logger.Warn("mark cooldown failed", "user_id", id, "err", err)
		}
	}
}

func (m *Manager) acceptNotifications(match *db.Match) ([]db.Notification, error) {
	p1 := m.builder.BuildAcceptPayload(match.ID, &match.User1, &match.User2, match.Compatibility)
	p2 := m.builder.BuildAcceptPayload(match.ID, &match.User2, &match.User1, match.Compatibility)

	data1, err := json.Marshal(p1)
	if err != nil {
		return nil, err
	}
	data2, err := json.Marshal(p2)
	if err != nil {
		return nil, err
	}

	now := m.appCtx.Now()
	return []db.Notification{
		{
			UserID:  match.User1ID,
			Type:    db.NotificationAccept,
			Message: acceptMessage(match.User2.FirstName),
			Data:    datatypes.JSON(data1),
			Time:    now,
		},
		{
			UserID:  match.User2ID,
			Type:    db.NotificationAccept,
			Message: acceptMessage(match.User1.FirstName),
			Data:    datatypes.JSON(data2),
			Time:    now,
		},
	}, nil
}

func (m *Manager) track(ctx context.Context, userID uint64, event string, props map[string]any) {
	if m.appCtx.Tracker == nil {
		return
	}
	if err := m.appCtx.Tracker.Track(ctx, userID, event, props); err != nil {
		m.appCtx.Logger.Warn("analytics track failed", "event", event, "user_id", userID, "err", err)
	}
}

// matchCreateProps reports the shared traits of the match and the position
// seen by the receiving side.
func matchCreateProps(match *db.Match, shared, seen MatchPayload) map[string]any {
	numerical := make([]string, 0, len(shared.NumericalSimilarities))
	for _, s := range shared.NumericalSimilarities {
		numerical = append(numerical, s.Trait)
	}
	text := make([]string, 0, len(shared.TextSimilarities))
	for _, s := range shared.TextSimilarities {
		text = append(text, s.Trait)
	}
	return map[string]any{
		"match_id":         match.ID,
		"numerical_traits": numerical,
		"text_traits":      text,
		"compatibility":    shared.Compatibility,
		"latitude":         seen.Latitude,
		"longitude":        seen.Longitude,
		"distance":         shared.Distance,
	}
}

func matchMessage(name string, compatibility int) string {
	return fmt.Sprintf("%s is nearby and %d%% compatible with you. you have 5 minutes to respond", name, compatibility)
}

func acceptMessage(name string) string {
	return fmt.Sprintf("%s is down to meet up. you have 5 minutes to go and say hi", name)
}
