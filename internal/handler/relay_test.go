package handler_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/UniM0cha/gilton-system/internal/handler"
	"github.com/UniM0cha/gilton-system/internal/model"
	"github.com/UniM0cha/gilton-system/internal/router"
	"github.com/UniM0cha/gilton-system/internal/service"
	"github.com/UniM0cha/gilton-system/internal/store"
	"github.com/UniM0cha/gilton-system/pkg/constants"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const waitTimeout = 2 * time.Second

// testRoom is a running server plus the stores behind it.
type testRoom struct {
	srv    *httptest.Server
	sheets *store.SheetStore
}

func newTestRoom(t *testing.T, opts service.HubOptions) *testRoom {
	t.Helper()
	dir := t.TempDir()
	logger := zap.NewNop()

	require.NoError(t, store.EnsureDataFiles(dir))
	sheets := store.NewSheetStore(dir, logger)
	require.NoError(t, sheets.Load())
	profiles := store.NewProfileStore(dir)

	if opts.SendBufferSize == 0 {
		opts.SendBufferSize = 64
	}
	hub := service.NewRoomHub(
		service.NewSessionRegistry(),
		service.NewPresentationState(),
		sheets,
		opts,
		0, 1024, 1024,
		logger,
	)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	r := router.New(
		handler.NewProfileHandler(profiles, logger),
		handler.NewSheetHandler(sheets, hub, logger),
		handler.NewRelayWSHandler(hub, logger),
		handler.NewHealthHandler(),
		sheets.ImageDir(),
	)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testRoom{srv: srv, sheets: sheets}
}

// wsClient is a test WebSocket participant collecting every received frame.
type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
	mu   sync.Mutex
	msgs []model.Envelope
}

func (room *testRoom) dial(t *testing.T) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(room.srv.URL, "http") + constants.PathWS
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	c := &wsClient{t: t, conn: conn}
	go c.readLoop()
	t.Cleanup(func() { _ = c.conn.Close() })
	return c
}

func (c *wsClient) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env model.Envelope
		if err := json.Unmarshal(data, &env); err == nil {
			c.mu.Lock()
			c.msgs = append(c.msgs, env)
			c.mu.Unlock()
		}
	}
}

func (c *wsClient) send(event string, payload any) {
	c.t.Helper()
	env := model.Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(c.t, err)
		env.Data = data
	}
	frame, err := json.Marshal(env)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, frame))
}

func (c *wsClient) sendRaw(frame string) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

// waitFor blocks until the nth (1-based) frame of the given event arrives.
func (c *wsClient) waitFor(event string, nth int) model.Envelope {
	c.t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		seen := 0
		for _, m := range c.msgs {
			if m.Event == event {
				seen++
				if seen == nth {
					c.mu.Unlock()
					return m
				}
			}
		}
		c.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	c.t.Fatalf("timed out waiting for %q (occurrence %d)", event, nth)
	return model.Envelope{}
}

func (c *wsClient) count(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.msgs {
		if m.Event == event {
			n++
		}
	}
	return n
}

func (c *wsClient) register(nickname string, role model.Role) {
	c.t.Helper()
	c.send(model.EventRegister, model.Profile{Nickname: nickname, Role: role, Icon: "🎵"})
	// catalog replay confirms the registration was processed
	c.waitFor(model.EventSheets, 1)
}

func decodeAs[T any](t *testing.T, env model.Envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestRelay_CommandBroadcastExcludesSender(t *testing.T) {
	room := newTestRoom(t, service.HubOptions{})

	a := room.dial(t)
	b := room.dial(t)
	c := room.dial(t)
	a.register("목사님", model.RolePastor)
	b.register("세션", model.RoleSession)
	c.register("인도자", model.RoleLeader)

	a.send(model.EventCommand, model.Command{Emoji: "▶️", Text: "시작"})

	for _, receiver := range []*wsClient{b, c} {
		env := receiver.waitFor(model.EventCommand, 1)
		event := decodeAs[model.CommandEvent](t, env)
		assert.Equal(t, "▶️", event.Command.Emoji)
		assert.Equal(t, "시작", event.Command.Text)
		assert.Equal(t, "목사님", event.Sender.Nickname)
		assert.Equal(t, model.RolePastor, event.Sender.Role)
	}

	assert.Equal(t, 1, b.count(model.EventCommand))
	assert.Equal(t, 1, c.count(model.EventCommand))
	assert.Zero(t, a.count(model.EventCommand))
}

func TestRelay_SessionRoleCommandSilentlyDropped(t *testing.T) {
	room := newTestRoom(t, service.HubOptions{})

	session := room.dial(t)
	leader := room.dial(t)
	viewer := room.dial(t)
	session.register("세션", model.RoleSession)
	leader.register("인도자", model.RoleLeader)
	viewer.register("성도", model.RoleSession)

	// the session-role command must produce zero deliveries; the leader's
	// command afterwards proves the room kept working
	session.send(model.EventCommand, model.Command{Emoji: "⏹️", Text: "정지"})
	leader.send(model.EventCommand, model.Command{Emoji: "🔁", Text: "계속 반복"})

	env := viewer.waitFor(model.EventCommand, 1)
	event := decodeAs[model.CommandEvent](t, env)
	assert.Equal(t, "계속 반복", event.Command.Text)
	assert.Equal(t, "인도자", event.Sender.Nickname)

	assert.Equal(t, 1, viewer.count(model.EventCommand))
	assert.Zero(t, session.count(model.EventCommand))
}

func TestRelay_UnregisteredConnectionCannotCommand(t *testing.T) {
	room := newTestRoom(t, service.HubOptions{})

	anon := room.dial(t)
	viewer := room.dial(t)
	leader := room.dial(t)
	viewer.register("성도", model.RoleSession)
	leader.register("인도자", model.RoleLeader)

	anon.send(model.EventCommand, model.Command{Emoji: "▶️", Text: "시작"})
	leader.send(model.EventCommand, model.Command{Emoji: "⏭️", Text: "다음 곡"})

	env := viewer.waitFor(model.EventCommand, 1)
	assert.Equal(t, "다음 곡", decodeAs[model.CommandEvent](t, env).Command.Text)
	assert.Equal(t, 1, viewer.count(model.EventCommand))
}

func TestRelay_SheetChangeBroadcastAndStateReplay(t *testing.T) {
	room := newTestRoom(t, service.HubOptions{ReplayPresentation: true})

	e := room.dial(t)
	other := room.dial(t)
	e.register("세션", model.RoleSession)
	other.register("성도", model.RoleSession)

	page := 2
	e.send(model.EventSheetChange, model.SheetChange{SheetID: "sheet_1", PageNumber: &page})

	env := other.waitFor(model.EventSheetChange, 1)
	change := decodeAs[model.SheetChange](t, env)
	assert.Equal(t, "sheet_1", change.SheetID)
	require.NotNil(t, change.PageNumber)
	assert.Equal(t, 2, *change.PageNumber)
	assert.Zero(t, e.count(model.EventSheetChange))

	// a late joiner sees the new state on register
	late := room.dial(t)
	late.send(model.EventRegister, model.Profile{Nickname: "늦은이", Role: model.RoleSession})
	state := decodeAs[model.PresentationSnapshot](t, late.waitFor(model.EventPresentationState, 1))
	assert.Equal(t, "sheet_1", state.CurrentSheetID)
	assert.Equal(t, 2, state.CurrentPage)
}

func TestRelay_SheetChangeValidationDropsUnknownSheet(t *testing.T) {
	room := newTestRoom(t, service.HubOptions{ValidateSheetChange: true})
	require.NoError(t, room.sheets.Append(model.Sheet{ID: "sheet_known", Title: "알려진 악보"}))

	sender := room.dial(t)
	receiver := room.dial(t)
	sender.register("인도자", model.RoleLeader)
	receiver.register("성도", model.RoleSession)

	sender.send(model.EventSheetChange, model.SheetChange{SheetID: "sheet_missing"})
	sender.send(model.EventSheetChange, model.SheetChange{SheetID: "sheet_known"})

	env := receiver.waitFor(model.EventSheetChange, 1)
	assert.Equal(t, "sheet_known", decodeAs[model.SheetChange](t, env).SheetID)
	assert.Equal(t, 1, receiver.count(model.EventSheetChange))
}

func TestRelay_DrawingUpdateRelayedToOthersOnly(t *testing.T) {
	room := newTestRoom(t, service.HubOptions{})

	artist := room.dial(t)
	viewer := room.dial(t)
	artist.register("세션", model.RoleSession)
	viewer.register("성도", model.RoleSession)

	update := model.DrawingUpdate{
		SheetID:    "sheet_1",
		PageNumber: 1,
		Paths: []model.DrawingPath{
			{Points: []model.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}, Color: "#ff0000", Width: 2},
		},
	}
	artist.send(model.EventDrawingUpdate, update)

	env := viewer.waitFor(model.EventDrawingUpdate, 1)
	got := decodeAs[model.DrawingUpdate](t, env)
	assert.Equal(t, update, got)
	assert.Zero(t, artist.count(model.EventDrawingUpdate))
}

func TestRelay_GetSheetsAnswersRequesterOnly(t *testing.T) {
	room := newTestRoom(t, service.HubOptions{})
	require.NoError(t, room.sheets.Append(model.Sheet{ID: "sheet_1", Title: "첫 곡"}))
	require.NoError(t, room.sheets.Append(model.Sheet{ID: "sheet_2", Title: "둘째 곡"}))

	d := room.dial(t)
	other := room.dial(t)

	d.send(model.EventGetSheets, nil)

	sheets := decodeAs[[]model.Sheet](t, d.waitFor(model.EventSheets, 1))
	require.Len(t, sheets, 2)
	assert.Equal(t, "sheet_1", sheets[0].ID)
	assert.Equal(t, "sheet_2", sheets[1].ID)
	assert.Zero(t, other.count(model.EventSheets))
}

func TestRelay_AdminReceivesRosterOnJoinAndChange(t *testing.T) {
	room := newTestRoom(t, service.HubOptions{})

	admin := room.dial(t)
	admin.send(model.EventRegisterAdmin, nil)

	// initial snapshot: empty roster
	first := decodeAs[[]model.RosterEntry](t, admin.waitFor(model.EventUsers, 1))
	assert.Empty(t, first)

	user := room.dial(t)
	user.register("김민수", model.RoleLeader)

	second := decodeAs[[]model.RosterEntry](t, admin.waitFor(model.EventUsers, 2))
	require.Len(t, second, 1)
	assert.Equal(t, "김민수", second[0].Profile.Nickname)
	assert.Equal(t, 2, admin.count(model.EventUsers))

	// roster entries keep connection-time ordering
	later := room.dial(t)
	later.register("박지현", model.RoleSession)
	third := decodeAs[[]model.RosterEntry](t, admin.waitFor(model.EventUsers, 3))
	require.Len(t, third, 2)
	assert.Equal(t, "김민수", third[0].Profile.Nickname)
	assert.Equal(t, "박지현", third[1].Profile.Nickname)
	assert.False(t, third[1].ConnectedAt.Before(third[0].ConnectedAt))

	// disconnect removes the entry before the next push
	require.NoError(t, later.conn.Close())
	fourth := decodeAs[[]model.RosterEntry](t, admin.waitFor(model.EventUsers, 4))
	require.Len(t, fourth, 1)
	assert.Equal(t, "김민수", fourth[0].Profile.Nickname)
}

func TestRelay_ReRegisterReplacesRosterProfile(t *testing.T) {
	room := newTestRoom(t, service.HubOptions{})

	admin := room.dial(t)
	admin.send(model.EventRegisterAdmin, nil)
	admin.waitFor(model.EventUsers, 1)

	user := room.dial(t)
	user.send(model.EventRegister, model.Profile{
		Nickname:         "처음",
		Role:             model.RoleLeader,
		FavoriteCommands: []string{"시작"},
	})
	user.waitFor(model.EventSheets, 1)
	admin.waitFor(model.EventUsers, 2)

	user.send(model.EventRegister, model.Profile{Nickname: "바뀜", Role: model.RoleSession})
	user.waitFor(model.EventSheets, 2)

	roster := decodeAs[[]model.RosterEntry](t, admin.waitFor(model.EventUsers, 3))
	require.Len(t, roster, 1)
	assert.Equal(t, "바뀜", roster[0].Profile.Nickname)
	assert.Equal(t, model.RoleSession, roster[0].Profile.Role)
	assert.Empty(t, roster[0].Profile.FavoriteCommands)
}

func TestRelay_MalformedFramesIsolatedToSender(t *testing.T) {
	room := newTestRoom(t, service.HubOptions{})

	bad := room.dial(t)
	good := room.dial(t)
	bad.register("인도자", model.RoleLeader)
	good.register("성도", model.RoleSession)

	bad.sendRaw("{not json at all")
	bad.sendRaw(`{"event":"register","data":{"nickname":"","role":"banana"}}`)
	bad.sendRaw(`{"event":"sheet-change","data":{}}`)
	bad.sendRaw(`{"event":"no-such-event"}`)

	// the same connection still works afterwards
	bad.send(model.EventCommand, model.Command{Emoji: "👍", Text: "좋음"})
	env := good.waitFor(model.EventCommand, 1)
	assert.Equal(t, "좋음", decodeAs[model.CommandEvent](t, env).Command.Text)
	assert.Zero(t, good.count(model.EventSheetChange))
}

func TestRelay_RegisterReplaysCatalog(t *testing.T) {
	room := newTestRoom(t, service.HubOptions{})
	require.NoError(t, room.sheets.Append(model.Sheet{ID: "sheet_1", Title: "기존 악보"}))

	joiner := room.dial(t)
	joiner.send(model.EventRegister, model.Profile{Nickname: "새신자", Role: model.RoleSession})

	sheets := decodeAs[[]model.Sheet](t, joiner.waitFor(model.EventSheets, 1))
	require.Len(t, sheets, 1)
	assert.Equal(t, "sheet_1", sheets[0].ID)

	// state replay is off by default, matching the observed behavior
	assert.Zero(t, joiner.count(model.EventPresentationState))
}
