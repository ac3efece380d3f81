package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chatrelay/internal/profile"
	"github.com/hrygo/chatrelay/relay"
	"github.com/hrygo/chatrelay/store"
	"github.com/hrygo/chatrelay/store/db/sqlite"
)

// recordingNotifier captures deliveries for assertions.
type recordingNotifier struct {
	mu         sync.Mutex
	broadcasts []string
	directs    map[string][]*relay.Message
	notices    []string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{directs: map[string][]*relay.Message{}}
}

func (n *recordingNotifier) Broadcast(_ context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcasts = append(n.broadcasts, text)
}

func (n *recordingNotifier) SendTo(_ context.Context, recipient string, msg *relay.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.directs[recipient] = append(n.directs[recipient], msg)
}

func (n *recordingNotifier) SystemNotice(_ context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, text)
}

type testEnv struct {
	chat     *ChatService
	mode     *ModeService
	modes    *relay.ModeController
	notifier *recordingNotifier
	store    *store.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "chatrelay_test.db"),
	}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })
	require.NoError(t, driver.Migrate(context.Background()))

	storeInstance := store.New(driver, p)
	notifier := newRecordingNotifier()
	modes := relay.NewModeController()
	router := relay.NewRouter(modes, &historyStore{store: storeInstance}, notifier)

	return &testEnv{
		chat: &ChatService{
			Router: router,
			Alarms: relay.NewAlarmHandler(modes, nil),
			Store:  storeInstance,
		},
		mode:     &ModeService{Modes: modes},
		modes:    modes,
		notifier: notifier,
		store:    storeInstance,
	}
}

func doJSON(t *testing.T, handler echo.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := handler(e.NewContext(req, rec))
	if err != nil {
		e.HTTPErrorHandler(err, e.NewContext(req, rec))
	}
	return rec
}

func TestPostChatBroadcastsInAutonomousMode(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.chat.PostChat, http.MethodPost, "/api/v1/chat",
		`{"content": "hello", "sender": "alice"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var handled relay.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &handled))
	assert.NotEmpty(t, handled.UID)
	assert.Equal(t, "hello", handled.Content)

	require.Len(t, env.notifier.broadcasts, 1)
	assert.Equal(t, "New message: hello", env.notifier.broadcasts[0])

	// The message was persisted before delivery.
	rows, err := env.store.ListMessages(context.Background(), &store.FindMessage{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, handled.UID, rows[0].UID)
}

func TestPostChatRequiresContentAndSender(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.chat.PostChat, http.MethodPost, "/api/v1/chat", `{"sender": "alice"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, env.chat.PostChat, http.MethodPost, "/api/v1/chat", `{"content": "hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostChatSupervisedWithoutRecipient(t *testing.T) {
	env := newTestEnv(t)
	env.modes.Transition(relay.ModeSupervised)

	rec := doJSON(t, env.chat.PostChat, http.MethodPost, "/api/v1/chat",
		`{"content": "hello", "sender": "alice"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.notifier.broadcasts)
}

func TestPostChatSupervisedDelivery(t *testing.T) {
	env := newTestEnv(t)
	env.modes.Transition(relay.ModeSupervised)

	rec := doJSON(t, env.chat.PostChat, http.MethodPost, "/api/v1/chat",
		`{"content": "hello", "sender": "alice", "recipient": "bob"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, env.notifier.directs["bob"], 1)
	assert.Equal(t, "hello", env.notifier.directs["bob"][0].Content)
	assert.Empty(t, env.notifier.broadcasts)
}

func TestPostPrivateChat(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.chat.PostPrivateChat, http.MethodPost, "/api/v1/chat/private",
		`{"content": "psst", "sender": "alice", "recipient": "bob"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, env.notifier.directs["bob"], 1)

	// Private delivery bypasses persistence.
	rows, err := env.store.ListMessages(context.Background(), &store.FindMessage{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	rec = doJSON(t, env.chat.PostPrivateChat, http.MethodPost, "/api/v1/chat/private",
		`{"content": "psst", "sender": "alice"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostAlarmForcesSupervisedMode(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.chat.PostAlarm, http.MethodPost, "/api/v1/alarm", `{"agentId": "agent-7"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, relay.ModeSupervised, env.modes.Current())

	rec = doJSON(t, env.chat.PostAlarm, http.MethodPost, "/api/v1/alarm", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHistory(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{
		`{"content": "one", "sender": "alice"}`,
		`{"content": "two", "sender": "bob"}`,
	} {
		rec := doJSON(t, env.chat.PostChat, http.MethodPost, "/api/v1/chat", body)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, env.chat.GetHistory, http.MethodGet, "/api/v1/history", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []relay.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "two", list[0].Content)

	rec = doJSON(t, env.chat.GetHistory, http.MethodGet, "/api/v1/history?sender=alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "one", list[0].Content)

	rec = doJSON(t, env.chat.GetHistory, http.MethodGet, "/api/v1/history?limit=nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModeEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.mode.GetMode, http.MethodGet, "/api/v1/mode", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got ModeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "autonomous", got.Mode)

	rec = doJSON(t, env.mode.PutMode, http.MethodPut, "/api/v1/mode", `{"mode": "supervised"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, relay.ModeSupervised, env.modes.Current())

	rec = doJSON(t, env.mode.PutMode, http.MethodPut, "/api/v1/mode", `{"mode": "bogus"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, relay.ModeSupervised, env.modes.Current())
}

func TestReEvaluatePulseOverREST(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.mode.PutMode, http.MethodPut, "/api/v1/mode", `{"mode": "reevaluate"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, env.chat.PostChat, http.MethodPost, "/api/v1/chat",
		`{"content": "ping", "sender": "alice"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, relay.ModeAutonomous, env.modes.Current())
	require.Len(t, env.notifier.notices, 1)
	assert.Equal(t, "mode restored", env.notifier.notices[0])
}
