package chat_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/oggyb/nearmatch/internal/app"
	"github.com/oggyb/nearmatch/internal/cache"
	"github.com/oggyb/nearmatch/internal/config"
	"github.com/oggyb/nearmatch/internal/db"
	"github.com/oggyb/nearmatch/internal/db/dbtest"
	"github.com/oggyb/nearmatch/internal/logger"
	"github.com/oggyb/nearmatch/internal/service/chat"
)

type fixture struct {
	svc  *chat.Service
	db   *gorm.DB
	now  time.Time
	a, b *db.User
}

func setupService(t *testing.T) *fixture {
	t.Helper()

	gdb := dbtest.Open(t)
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Chat.Retention = 10 * time.Minute

	f := &fixture{db: gdb, now: time.Now().UTC().Truncate(time.Millisecond)}
	appCtx := app.New(gdb, cache.NewRedisCache(cfg), logger.Discard(), cfg)
	appCtx.Now = func() time.Time { return f.now }
	f.svc = chat.NewChatService(appCtx)

	for i, name := range []string{"ana", "ben"} {
		u := &db.User{Email: name + "@usc.edu", PhoneNumber: fmt.Sprintf("+1213555000%d", i), FirstName: name,
			SexIdentity: db.SexFemale, SexPreference: db.SexBoth}
		require.NoError(t, gdb.Create(u).Error)
		if i == 0 {
			f.a = u
		} else {
			f.b = u
		}
	}
	return f
}

func (f *fixture) send(t *testing.T, from, to *db.User, body string) *chat.SendMessageResponse {
	t.Helper()
	resp, err := f.svc.SendMessage(context.Background(), &chat.SendMessageRequest{
		SenderID: from.ID, ReceiverID: to.ID, Body: body,
	})
	require.NoError(t, err)
	return resp
}

func TestSendMessage_StoresAndLists(t *testing.T) {
	f := setupService(t)

	sent := f.send(t, f.a, f.b, "  hey, you nearby?  ")
	assert.Equal(t, "hey, you nearby?", sent.Message.Body)
	assert.Zero(t, sent.Pruned)

	f.now = f.now.Add(time.Second)
	f.send(t, f.b, f.a, "yes, by the fountain")

	resp, err := f.svc.ListMessages(context.Background(), &chat.ListMessagesRequest{User1ID: f.a.ID, User2ID: f.b.ID})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "yes, by the fountain", resp.Messages[0].Body)
	assert.Equal(t, f.b.ID, resp.Messages[0].SenderID)
	assert.Nil(t, resp.NextPaginationToken)
}

func TestSendMessage_PrunesExpiredHistory(t *testing.T) {
	f := setupService(t)

	f.send(t, f.a, f.b, "one")
	f.send(t, f.b, f.a, "two")

	f.now = f.now.Add(11 * time.Minute)
	sent := f.send(t, f.a, f.b, "three")
	assert.Equal(t, int64(2), sent.Pruned)

	resp, err := f.svc.ListMessages(context.Background(), &chat.ListMessagesRequest{User1ID: f.b.ID, User2ID: f.a.ID})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "three", resp.Messages[0].Body)
}

func TestSendMessage_Validation(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	cases := []*chat.SendMessageRequest{
		{SenderID: f.a.ID, ReceiverID: f.b.ID, Body: "   "},
		{SenderID: f.a.ID, ReceiverID: f.b.ID, Body: strings.Repeat("x", 1001)},
		{SenderID: f.a.ID, ReceiverID: f.a.ID, Body: "me"},
		{SenderID: f.a.ID, ReceiverID: 999, Body: "hello?"},
	}
	for _, req := range cases {
		_, err := f.svc.SendMessage(ctx, req)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	}

	_, err := f.svc.ListMessages(ctx, &chat.ListMessagesRequest{User1ID: f.a.ID})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestListMessages_Pagination(t *testing.T) {
	f := setupService(t)
	for i := range 55 {
		f.send(t, f.a, f.b, fmt.Sprint(i))
	}

	ctx := context.Background()
	page, err := f.svc.ListMessages(ctx, &chat.ListMessagesRequest{User1ID: f.a.ID, User2ID: f.b.ID})
	require.NoError(t, err)
	assert.Len(t, page.Messages, 50)
	assert.Equal(t, "54", page.Messages[0].Body)
	require.NotNil(t, page.NextPaginationToken)

	page, err = f.svc.ListMessages(ctx, &chat.ListMessagesRequest{
		User1ID: f.a.ID, User2ID: f.b.ID, PaginationToken: page.NextPaginationToken,
	})
	require.NoError(t, err)
	assert.Len(t, page.Messages, 5)
	assert.Equal(t, "4", page.Messages[0].Body)
}
