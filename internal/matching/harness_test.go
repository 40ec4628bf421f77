package matching_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/nearmatch/internal/app"
	"github.com/oggyb/nearmatch/internal/cache"
	"github.com/oggyb/nearmatch/internal/config"
	"github.com/oggyb/nearmatch/internal/db"
	"github.com/oggyb/nearmatch/internal/db/dbtest"
	"github.com/oggyb/nearmatch/internal/logger"
	"github.com/oggyb/nearmatch/internal/matching"
	"github.com/oggyb/nearmatch/internal/notify"
	"github.com/oggyb/nearmatch/internal/repository"
)

type delivery struct {
	userID  uint64
	message string
	extra   notify.Extra
}

type fakePusher struct {
	mu        sync.Mutex
	delivered []delivery
	err       error
}

func (p *fakePusher) Deliver(_ context.Context, userID uint64, message string, _ *string, extra notify.Extra) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delivered = append(p.delivered, delivery{userID: userID, message: message, extra: extra})
	return p.err
}

func (p *fakePusher) RegisterEndpoint(context.Context, string, string) (string, error) {
	return "", nil
}

type trackedEvent struct {
	userID uint64
	event  string
}

type fakeTracker struct {
	mu     sync.Mutex
	events []trackedEvent
}

func (t *fakeTracker) Track(_ context.Context, userID uint64, event string, _ map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, trackedEvent{userID: userID, event: event})
	return nil
}

// harness wires an engine over in-memory SQLite, miniredis, a fixed clock
// and recording collaborators.
type harness struct {
	t       *testing.T
	db      *gorm.DB
	redis   *miniredis.Miniredis
	appCtx  *app.AppContext
	pusher  *fakePusher
	tracker *fakeTracker
	manager *matching.Manager
	engine  *matching.Engine
	now     time.Time
	seq     int

	numericalQ *db.NumericalQuestion
	textQ      *db.TextQuestion
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	gdb := dbtest.Open(t)
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	cfg.Match.BoxDegrees = 0.001
	cfg.Match.Freshness = 15 * time.Minute
	cfg.Match.Expiry = 24 * time.Hour
	cfg.Match.MinNumerical = 1
	cfg.Match.MinText = 1
	cfg.Match.LockTTL = 10 * time.Second
	cfg.Match.CooldownCacheTTL = 5 * time.Minute

	h := &harness{
		t:       t,
		db:      gdb,
		redis:   mr,
		pusher:  &fakePusher{},
		tracker: &fakeTracker{},
		now:     time.Now().UTC().Truncate(time.Millisecond),
	}

	h.appCtx = app.New(gdb, cache.NewRedisCache(cfg), logger.Discard(), cfg)
	h.appCtx.Now = func() time.Time { return h.now }
	h.appCtx.Pusher = h.pusher
	h.appCtx.Tracker = h.tracker

	builder := matching.NewPayloadBuilder(rand.New(rand.NewPCG(1, 2)), h.appCtx.Now)
	h.manager = matching.NewManager(h.appCtx, builder)
	h.engine = matching.NewEngine(h.appCtx, h.manager)

	h.seedSurvey()
	return h
}

// seedSurvey creates one numerical question (average 3) and one text
// question with hello/goodbye choices.
func (h *harness) seedSurvey() {
	ctx := context.Background()
	survey := repository.NewSurveyRepository(h.db)

	extraverted := "extraverted"
	c, err := survey.CreateCategory(ctx, "introverted", &extraverted)
	require.NoError(h.t, err)

	h.numericalQ, err = survey.CreateNumericalQuestion(ctx,
		db.BaseQuestion{Header: "personality", Prompt: "how often do you go out?", CategoryID: &c.ID},
		repository.NumericalQuestionSpec{})
	require.NoError(h.t, err)

	h.textQ, err = survey.CreateTextQuestion(ctx,
		db.BaseQuestion{Header: "personality", Prompt: "say something", CategoryID: &c.ID},
		false,
		[]db.TextAnswerChoice{{Answer: "hello", Emoji: "👋"}, {Answer: "goodbye", Emoji: "🫡"}})
	require.NoError(h.t, err)
}

// user inserts a matchable user at (0, 0) with a fresh location and the
// given survey answers.
func (h *harness) user(name string, identity, preference db.Sex, numerical float64, text string) *db.User {
	h.t.Helper()
	ctx := context.Background()

	h.seq++
	lat, lng := 0.0, 0.0
	u := &db.User{
		Email:         name + "@usc.edu",
		PhoneNumber:   fmt.Sprintf("+1310555%04d", h.seq),
		FirstName:     name,
		SexIdentity:   identity,
		SexPreference: preference,
		Latitude:      &lat,
		Longitude:     &lng,
		LocUpdateTime: h.now,
		IsMatchable:   true,
	}
	require.NoError(h.t, h.db.Create(u).Error)

	survey := repository.NewSurveyRepository(h.db)
	require.NoError(h.t, survey.SaveNumericalResponse(ctx, u.ID, h.numericalQ.ID, numerical))
	require.NoError(h.t, survey.SaveTextResponse(ctx, u.ID, h.textQ.ID, text))
	return u
}

func (h *harness) reload(u *db.User) *db.User {
	h.t.Helper()
	fresh, err := repository.NewUserRepository(h.db).GetByID(context.Background(), u.ID)
	require.NoError(h.t, err)
	return fresh
}

func (h *harness) count(model any) int64 {
	h.t.Helper()
	var n int64
	require.NoError(h.t, h.db.Model(model).Count(&n).Error)
	return n
}

func (h *harness) notifications(typ db.NotificationType) []db.Notification {
	h.t.Helper()
	var out []db.Notification
	require.NoError(h.t, h.db.Where("type = ?", typ).Order("id ASC").Find(&out).Error)
	return out
}

func (h *harness) matchPayload(n db.Notification) matching.MatchPayload {
	h.t.Helper()
	var p matching.MatchPayload
	require.NoError(h.t, json.Unmarshal(n.Data, &p))
	return p
}

func (h *harness) locate(u *db.User, lat, lng float64) *matching.LocationResult {
	h.t.Helper()
	res, err := h.engine.UpdateLocation(context.Background(), matching.LocationUpdate{
		Email:     u.Email,
		Latitude:  lat,
		Longitude: lng,
	})
	require.NoError(h.t, err)
	return res
}
