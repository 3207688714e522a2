package session

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"shopping-assistant/internal/common/config"
	"shopping-assistant/internal/common/database"
	apperrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Memory Store
// ==========================

func TestMemoryStore_SaveLoadDelete(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute)
	ctx := context.Background()
	state := models.NewConversationState("s-1")

	require.NoError(t, store.Save(ctx, state))
	got, err := store.Load(ctx, "s-1")
	require.NoError(t, err)
	assert.Same(t, state, got)

	require.NoError(t, store.Delete(ctx, "s-1"))
	_, err = store.Load(ctx, "s-1")
	assert.Equal(t, apperrors.ErrCodeSessionNotFound, apperrors.CodeOf(err))
}

func TestMemoryStore_Expires(t *testing.T) {
	store := NewMemoryStore(20*time.Millisecond, time.Minute)
	require.NoError(t, store.Save(context.Background(), models.NewConversationState("s-1")))

	time.Sleep(40 * time.Millisecond)
	_, err := store.Load(context.Background(), "s-1")
	assert.Equal(t, apperrors.ErrCodeSessionNotFound, apperrors.CodeOf(err))
}

// ==========================
// Redis Store
// ==========================

func TestRedisStore_RoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	store := NewRedisStore(client, "test:", 5*time.Minute)
	ctx := context.Background()

	state := models.NewConversationState("s-1")
	state.AppendMessage(models.RoleUser, "find a kettle")
	state.ActiveQuery = &models.Query{ProductType: "kettle", PriceRange: models.NewPriceRange(nil, models.Float(60))}
	state.ResearchCache["https://shop.test/k"] = models.ResearchRecord{Description: "steel kettle"}
	require.NoError(t, store.Save(ctx, state))

	assert.True(t, mr.Exists("test:s-1"))
	assert.Equal(t, 5*time.Minute, mr.TTL("test:s-1"))

	got, err := store.Load(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseHasResults, got.Phase())
	require.Len(t, got.History, 1)
	assert.Equal(t, "find a kettle", got.History[0].Content)
	assert.Equal(t, 60.0, *got.ActiveQuery.PriceRange.Max)
	assert.Equal(t, "steel kettle", got.ResearchCache["https://shop.test/k"].Description)

	require.NoError(t, store.Delete(ctx, "s-1"))
	_, err = store.Load(ctx, "s-1")
	assert.Equal(t, apperrors.ErrCodeSessionNotFound, apperrors.CodeOf(err))
}

func TestRedisStore_LoadFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(&database.RedisClient{Client: db}, "", 0)

	mock.ExpectGet(defaultKeyPrefix + "s-1").SetErr(errors.New("connection reset"))

	_, err := store.Load(context.Background(), "s-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeSessionStoreFailed, apperrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Transcript
// ==========================

func TestTranscriptRepository_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	state := models.NewConversationState("s-1")
	user := state.AppendMessage(models.RoleUser, "find a kettle")
	assistant := state.AppendMessage(models.RoleAssistant, "I found some kettle that match your criteria:")

	insert := regexp.QuoteMeta("INSERT INTO conversation_turns")
	mock.ExpectBegin()
	mock.ExpectExec(insert).
		WithArgs(user.ID, "s-1", "user", "find a kettle", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insert).
		WithArgs(assistant.ID, "s-1", "assistant", assistant.Content, "search", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewTranscriptRepository(db)
	require.NoError(t, repo.Append(context.Background(), "s-1", models.IntentSearch, user, assistant))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranscriptRepository_AppendRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO conversation_turns")).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	repo := NewTranscriptRepository(db)
	err = repo.Append(context.Background(), "s-1", models.IntentSearch, models.Message{ID: "m-1", Role: models.RoleUser})
	assert.Equal(t, apperrors.ErrCodeDatabaseInsertFailed, apperrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranscriptRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, role, content, created_at")).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "role", "content", "created_at"}).
			AddRow("m-1", "user", "find a kettle", now).
			AddRow("m-2", "assistant", "Here you go", now.Add(time.Second)))

	repo := NewTranscriptRepository(db)
	got, err := repo.List(context.Background(), "s-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.RoleAssistant, got[1].Role)
	assert.Equal(t, "Here you go", got[1].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Manager
// ==========================

type echoHandler struct {
	inFlight    int32
	maxInFlight int32
	delay       time.Duration
}

func (h *echoHandler) HandleUtterance(_ context.Context, state *models.ConversationState, text string) *models.Response {
	n := atomic.AddInt32(&h.inFlight, 1)
	for {
		peak := atomic.LoadInt32(&h.maxInFlight)
		if n <= peak || atomic.CompareAndSwapInt32(&h.maxInFlight, peak, n) {
			break
		}
	}
	time.Sleep(h.delay)
	atomic.AddInt32(&h.inFlight, -1)

	state.AppendMessage(models.RoleUser, text)
	state.AppendMessage(models.RoleAssistant, "echo: "+text)
	return &models.Response{SessionID: state.SessionID, Intent: models.IntentSearch, Message: "echo: " + text}
}

type fakeTranscript struct {
	mu    sync.Mutex
	turns []models.Message
	err   error
}

func (f *fakeTranscript) Append(_ context.Context, _ string, _ models.Intent, messages ...models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.turns = append(f.turns, messages...)
	return nil
}

func TestManager_HandleSerializesPerSession(t *testing.T) {
	handler := &echoHandler{delay: 5 * time.Millisecond}
	transcript := &fakeTranscript{}
	m := NewManager(NewMemoryStore(time.Minute, time.Minute), handler, transcript, logger.NewNoOpLogger())
	ctx := context.Background()

	state, err := m.Create(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, state.SessionID)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Handle(ctx, state.SessionID, "hello")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&handler.maxInFlight))
	got, err := m.Get(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Len(t, got.History, 16)
	assert.Len(t, transcript.turns, 16)
	assert.Empty(t, m.locks)
}

func TestManager_SessionsRunIndependently(t *testing.T) {
	handler := &echoHandler{delay: 20 * time.Millisecond}
	m := NewManager(NewMemoryStore(time.Minute, time.Minute), handler, nil, logger.NewNoOpLogger())
	ctx := context.Background()

	a, _ := m.Create(ctx, "a")
	b, _ := m.Create(ctx, "b")

	var wg sync.WaitGroup
	for _, id := range []string{a.SessionID, b.SessionID} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = m.Handle(ctx, id, "hi from "+id)
		}(id)
	}
	wg.Wait()

	gotA, _ := m.Get(ctx, "a")
	gotB, _ := m.Get(ctx, "b")
	require.Len(t, gotA.History, 2)
	require.Len(t, gotB.History, 2)
	assert.Equal(t, "hi from a", gotA.History[0].Content)
	assert.Equal(t, "hi from b", gotB.History[0].Content)
}

func TestManager_UnknownSession(t *testing.T) {
	m := NewManager(NewMemoryStore(time.Minute, time.Minute), &echoHandler{}, nil, logger.NewNoOpLogger())

	_, err := m.Handle(context.Background(), "missing", "hi")
	assert.Equal(t, apperrors.ErrCodeSessionNotFound, apperrors.CodeOf(err))

	_, err = m.Handle(context.Background(), "", "hi")
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.CodeOf(err))
}

func TestManager_TranscriptFailureIsTolerated(t *testing.T) {
	transcript := &fakeTranscript{err: errors.New("db down")}
	m := NewManager(NewMemoryStore(time.Minute, time.Minute), &echoHandler{}, transcript, logger.NewNoOpLogger())
	ctx := context.Background()

	state, err := m.Create(ctx, "s-1")
	require.NoError(t, err)

	resp, err := m.Handle(ctx, state.SessionID, "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", resp.Message)
}

func TestManager_GetReturnsSnapshot(t *testing.T) {
	m := NewManager(NewMemoryStore(time.Minute, time.Minute), &echoHandler{}, nil, logger.NewNoOpLogger())
	ctx := context.Background()

	created, err := m.Create(ctx, "s-1")
	require.NoError(t, err)
	created.AppendMessage(models.RoleUser, "not stored")

	snap, err := m.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Empty(t, snap.History)
	snap.ResearchCache["k"] = models.ResearchRecord{Description: "local"}

	_, err = m.Handle(ctx, "s-1", "hi")
	require.NoError(t, err)

	assert.Empty(t, snap.History)
	got, err := m.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Len(t, got.History, 2)
	assert.NotContains(t, got.ResearchCache, "k")
}

func TestManager_ResetAndDelete(t *testing.T) {
	m := NewManager(NewMemoryStore(time.Minute, time.Minute), &echoHandler{}, nil, logger.NewNoOpLogger())
	ctx := context.Background()

	_, err := m.Create(ctx, "s-1")
	require.NoError(t, err)
	_, err = m.Handle(ctx, "s-1", "hi")
	require.NoError(t, err)

	fresh, err := m.Reset(ctx, "s-1")
	require.NoError(t, err)
	assert.Empty(t, fresh.History)
	assert.Equal(t, models.PhaseIdle, fresh.Phase())

	require.NoError(t, m.Delete(ctx, "s-1"))
	_, err = m.Get(ctx, "s-1")
	assert.Equal(t, apperrors.ErrCodeSessionNotFound, apperrors.CodeOf(err))
	assert.Error(t, m.Delete(ctx, "s-1"))
}
