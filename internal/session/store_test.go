package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripbuddy/assist/internal/models"
	"github.com/tripbuddy/assist/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *storage.MemoryStore) {
	t.Helper()
	mem := storage.NewMemoryStore()
	s, err := NewStore(context.Background(), mem)
	require.NoError(t, err)
	return s, mem
}

func TestFreshStoreCreatesActiveSession(t *testing.T) {
	s, mem := newTestStore(t)

	active := s.Active()
	require.NotEmpty(t, active)
	assert.Equal(t, []string{active}, s.List())
	assert.Empty(t, s.Messages(active))

	// The pointer is persisted immediately.
	persisted, ok, err := mem.Load(context.Background(), storage.KeyActiveSession)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, active, persisted)
}

func TestAppendOrderSurvivesReload(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	id := s.Active()

	msgs := []models.Message{
		models.NewTextMessage(models.SenderUser, "go to the airport"),
		models.NewRouteMessage(models.RouteInfo{StepsNeeded: 3}, []models.RouteLeg{{Start: "Home", End: "Airport", ModeOfTransport: "driving"}}),
		models.NewTextMessage(models.SenderBot, "three more steps"),
	}
	for _, m := range msgs {
		require.NoError(t, s.Append(ctx, id, m))
	}
	assert.Equal(t, msgs, s.Messages(id))

	// A store loaded from the same persistence reproduces the identical
	// ordered sequence and the same active pointer.
	reloaded, err := NewStore(ctx, mem)
	require.NoError(t, err)
	assert.Equal(t, id, reloaded.Active())
	assert.Equal(t, msgs, reloaded.Messages(id))
}

func TestAppendUnknownSession(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.Append(context.Background(), "no such session", models.NewTextMessage(models.SenderUser, "hi"))
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestCreateDoesNotSwitch(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	active := s.Active()

	id := s.Create(ctx)
	assert.NotEqual(t, active, id)
	assert.Equal(t, active, s.Active())
	assert.Len(t, s.List(), 2)

	s.SwitchTo(ctx, id)
	assert.Equal(t, id, s.Active())
}

func TestSwitchToUnknownIsNoOp(t *testing.T) {
	s, _ := newTestStore(t)
	active := s.Active()
	s.SwitchTo(context.Background(), "ghost")
	assert.Equal(t, active, s.Active())
}

func TestDeleteActiveAdvancesPointer(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	first := s.Active()
	second := s.Create(ctx)

	s.Delete(ctx, first)

	assert.Equal(t, second, s.Active())
	assert.Equal(t, []string{second}, s.List())
}

func TestDeleteLastSessionSynthesizesEmptyOne(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	id := s.Active()
	require.NoError(t, s.Append(ctx, id, models.NewTextMessage(models.SenderUser, "hi")))

	s.Delete(ctx, id)

	active := s.Active()
	require.NotEmpty(t, active)
	assert.Equal(t, []string{active}, s.List())
	assert.Empty(t, s.Messages(active))
}

func TestDeleteInactiveKeepsActiveUntouched(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	a := s.Active()
	require.NoError(t, s.Append(ctx, a, models.NewTextMessage(models.SenderUser, "keep me")))
	b := s.Create(ctx)

	s.Delete(ctx, b)

	assert.Equal(t, a, s.Active())
	require.Len(t, s.Messages(a), 1)
	assert.Equal(t, "keep me", s.Messages(a)[0].Text)
}

func TestRenameMovesMessagesAndPointer(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	old := s.Active()
	require.NoError(t, s.Append(ctx, old, models.NewTextMessage(models.SenderUser, "hello")))

	require.NoError(t, s.Rename(ctx, old, "trip to rome"))

	assert.Equal(t, "trip to rome", s.Active())
	assert.Nil(t, s.Messages(old))
	require.Len(t, s.Messages("trip to rome"), 1)

	// The move is durable.
	reloaded, err := NewStore(ctx, mem)
	require.NoError(t, err)
	assert.Equal(t, "trip to rome", reloaded.Active())
	assert.Len(t, reloaded.Messages("trip to rome"), 1)
}

func TestRenameCollisionLeavesBothUntouched(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	a := s.Active()
	require.NoError(t, s.Append(ctx, a, models.NewTextMessage(models.SenderUser, "a's message")))
	b := s.Create(ctx)
	require.NoError(t, s.Append(ctx, b, models.NewTextMessage(models.SenderUser, "b's message")))

	err := s.Rename(ctx, a, b)
	assert.ErrorIs(t, err, ErrCollision)

	assert.Equal(t, "a's message", s.Messages(a)[0].Text)
	assert.Equal(t, "b's message", s.Messages(b)[0].Text)
}

func TestRenameToSelfIsNoOp(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	a := s.Active()
	require.NoError(t, s.Rename(ctx, a, a))
	assert.Equal(t, a, s.Active())
}

func TestRenameUnknownSession(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.Rename(context.Background(), "ghost", "new name")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestLoadSkipsCorruptMessages(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Save(ctx, storage.KeySessions,
		`{"trip":[{"sender":"user","type":"text","text":"hi"},{"sender":"bot","type":"hologram"}]}`))
	require.NoError(t, mem.Save(ctx, storage.KeyActiveSession, "trip"))

	s, err := NewStore(ctx, mem)
	require.NoError(t, err)

	assert.Equal(t, "trip", s.Active())
	require.Len(t, s.Messages("trip"), 1)
	assert.Equal(t, "hi", s.Messages("trip")[0].Text)
}

func TestPersistedActivePointingNowhereCreatesFresh(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Save(ctx, storage.KeySessions, `{"trip":[]}`))
	require.NoError(t, mem.Save(ctx, storage.KeyActiveSession, "ghost"))

	s, err := NewStore(ctx, mem)
	require.NoError(t, err)

	active := s.Active()
	assert.NotEqual(t, "ghost", active)
	assert.Contains(t, s.List(), "trip")
	assert.Contains(t, s.List(), active)
	assert.Empty(t, s.Messages(active))
}

func TestWriteFailureKeepsMemoryAuthoritative(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	id := s.Active()

	mem.FailWrites = assert.AnError
	require.NoError(t, s.Append(ctx, id, models.NewTextMessage(models.SenderUser, "unsaved")))
	assert.Len(t, s.Messages(id), 1)

	// Next successful write catches up with the full state.
	mem.FailWrites = nil
	require.NoError(t, s.Append(ctx, id, models.NewTextMessage(models.SenderUser, "saved")))

	reloaded, err := NewStore(ctx, mem)
	require.NoError(t, err)
	assert.Len(t, reloaded.Messages(id), 2)
}

func TestGeneratedIDsDoNotCollide(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	seen := map[string]bool{s.Active(): true}
	for i := 0; i < 5; i++ {
		id := s.Create(ctx)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
