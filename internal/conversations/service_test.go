package conversations

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/taxchat-backend/pkg/db"
	"github.com/angelmondragon/taxchat-backend/pkg/db/dbtest"
	"github.com/angelmondragon/taxchat-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/taxchat-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := dbtest.Open(t, 2)
	svc, err := NewService(ServiceParams{Storage: client})
	require.NoError(t, err)
	return svc, client
}

func TestStartSessionClosesPreviousOpenSession(t *testing.T) {
	svc, c := newTestService(t)
	user := dbtest.MustUser(t, c, "start@example.com")
	previous := dbtest.MustSession(t, c, user.ID, time.Now().Add(-time.Hour), nil)

	started, err := svc.StartSession(context.Background(), user.Email, "  ")
	require.NoError(t, err)
	assert.True(t, started.IsOpen)
	assert.Equal(t, DefaultTopic, started.Topic)
	assert.NotEqual(t, previous.ID, started.ID)

	var reloaded models.ChatSession
	require.NoError(t, c.DB().First(&reloaded, previous.ID).Error)
	assert.False(t, reloaded.IsOpen())
}

func TestStartSessionUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.StartSession(context.Background(), "ghost@example.com", "GST")
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestCloseSessionOwnership(t *testing.T) {
	svc, c := newTestService(t)
	owner := dbtest.MustUser(t, c, "owner@example.com")
	dbtest.MustUser(t, c, "intruder@example.com")
	session := dbtest.MustSession(t, c, owner.ID, time.Now(), nil)
	ctx := context.Background()

	_, err := svc.CloseSession(ctx, "intruder@example.com", session.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	closed, err := svc.CloseSession(ctx, owner.Email, session.ID)
	require.NoError(t, err)
	assert.False(t, closed.IsOpen)
	require.NotNil(t, closed.EndTime)

	again, err := svc.CloseSession(ctx, owner.Email, session.ID)
	require.NoError(t, err)
	assert.True(t, closed.EndTime.Equal(*again.EndTime))

	_, err = svc.CloseSession(ctx, owner.Email, 9999)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = svc.CloseSession(ctx, owner.Email, 0)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestDeleteConversation(t *testing.T) {
	svc, c := newTestService(t)
	owner := dbtest.MustUser(t, c, "gone@example.com")
	session := dbtest.MustSession(t, c, owner.ID, time.Now(), nil)
	dbtest.MustQA(t, c, models.QAPair{UserID: owner.ID, SessionID: session.ID, Question: "q?", Answer: "a"})

	require.NoError(t, svc.DeleteConversation(context.Background(), owner.Email, session.ID))

	err := svc.DeleteConversation(context.Background(), owner.Email, session.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	var qaCount int64
	require.NoError(t, c.DB().Model(&models.QAPair{}).Count(&qaCount).Error)
	assert.Zero(t, qaCount)
}

func TestListConversationsGroupsMessages(t *testing.T) {
	svc, c := newTestService(t)
	owner := dbtest.MustUser(t, c, "hist@example.com")
	older := dbtest.MustSession(t, c, owner.ID, time.Now().Add(-time.Hour), ptrTime(time.Now().Add(-time.Minute)))
	newer := dbtest.MustSession(t, c, owner.ID, time.Now(), nil)
	base := time.Now().Add(-50 * time.Minute)
	dbtest.MustQA(t, c, models.QAPair{UserID: owner.ID, SessionID: older.ID, Question: "first?", Answer: "1", CreatedAt: base})
	dbtest.MustQA(t, c, models.QAPair{UserID: owner.ID, SessionID: older.ID, Question: "second?", Answer: "2", CreatedAt: base.Add(time.Minute)})

	got, err := svc.ListConversations(context.Background(), owner.Email)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Empty(t, got[0].Messages)
	require.Len(t, got[1].Messages, 2)
	assert.Equal(t, "first?", got[1].Messages[0].Question)
	assert.EqualValues(t, 2, got[1].MessageCount)
}
