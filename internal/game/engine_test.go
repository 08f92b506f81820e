package game

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"lip-sprint/internal/db"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	tokenA = "token-aaaaaaaa"
	tokenB = "token-bbbbbbbb"
	tokenC = "token-cccccccc"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("unwrap test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return New(conn)
}

func mustCreateRoom(t *testing.T, e *Engine, name, token string) string {
	t.Helper()
	code, err := e.CreateRoom(name, token)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return code
}

func mustJoinRoom(t *testing.T, e *Engine, code, name, token string) {
	t.Helper()
	if _, err := e.JoinRoom(code, name, token); err != nil {
		t.Fatalf("join room: %v", err)
	}
}

func mustGetState(t *testing.T, e *Engine, code, token string) *StateView {
	t.Helper()
	state, err := e.GetState(code, token)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state == nil {
		t.Fatalf("expected state for room %s, got nil", code)
	}
	return state
}

func sessionRow(t *testing.T, e *Engine, code string) db.Session {
	t.Helper()
	var session db.Session
	if err := e.db.Where("code = ?", code).First(&session).Error; err != nil {
		t.Fatalf("load session row: %v", err)
	}
	return session
}

// Two concurrent joins must not both pass the player-count check, so the
// mutation path has to lock the session row on dialects with concurrent
// writers. Asserted on the generated SQL because the test store is sqlite.
func TestMutationSessionLoadLocksRow(t *testing.T) {
	conn, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "postgres://localhost/unreachable?sslmode=disable",
	}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open postgres dialector: %v", err)
	}

	sql := conn.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return lockForUpdate(tx).Where("code = ?", "AAAAA").First(&db.Session{})
	})
	if !strings.Contains(sql, "FOR UPDATE") {
		t.Fatalf("expected a FOR UPDATE lock on postgres, got %q", sql)
	}

	e := newTestEngine(t)
	sql = e.db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return lockForUpdate(tx).Where("code = ?", "AAAAA").First(&db.Session{})
	})
	if strings.Contains(sql, "FOR UPDATE") {
		t.Fatalf("expected sqlite to skip the lock clause, got %q", sql)
	}
}

func TestCreateRoomGeneratesCode(t *testing.T) {
	e := newTestEngine(t)
	code := mustCreateRoom(t, e, "Ada", tokenA)

	if len(code) != roomCodeLength {
		t.Fatalf("expected %d-character code, got %q", roomCodeLength, code)
	}
	for _, r := range code {
		if !strings.ContainsRune(roomCodeAlphabet, r) {
			t.Fatalf("code %q contains %q outside the alphabet", code, r)
		}
	}

	state := mustGetState(t, e, code, tokenA)
	if state.Session.Phase != phaseLobby {
		t.Fatalf("expected phase %q, got %q", phaseLobby, state.Session.Phase)
	}
	if state.Me == nil || !state.Me.IsHost || !state.Me.IsTurn {
		t.Fatalf("expected creator to be host and turn holder, got %+v", state.Me)
	}
	if len(state.Players) != 1 {
		t.Fatalf("expected 1 player, got %d", len(state.Players))
	}
}

func TestCreateRoomValidation(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.CreateRoom("A", tokenA); KindOf(err) != KindInvalidInput {
		t.Fatalf("expected invalid input for short name, got %v", err)
	}
	if _, err := e.CreateRoom("Ada", "short"); KindOf(err) != KindInvalidInput {
		t.Fatalf("expected invalid input for short token, got %v", err)
	}
	longName := strings.Repeat("a", 25)
	if _, err := e.CreateRoom(longName, tokenA); KindOf(err) != KindInvalidInput {
		t.Fatalf("expected invalid input for long name, got %v", err)
	}
}

func TestJoinRoomFull(t *testing.T) {
	e := newTestEngine(t)
	code := mustCreateRoom(t, e, "Ada", tokenA)
	mustJoinRoom(t, e, code, "Brie", tokenB)

	_, err := e.JoinRoom(code, "Cleo", tokenC)
	if KindOf(err) != KindRoomFull {
		t.Fatalf("expected room full, got %v", err)
	}
}

func TestJoinRoomIdempotent(t *testing.T) {
	e := newTestEngine(t)
	code := mustCreateRoom(t, e, "Ada", tokenA)
	mustJoinRoom(t, e, code, "Brie", tokenB)
	mustJoinRoom(t, e, code, "Brianna", tokenB)

	state := mustGetState(t, e, code, tokenB)
	if len(state.Players) != 2 {
		t.Fatalf("expected 2 players after rejoin, got %d", len(state.Players))
	}
	if state.Me == nil || state.Me.Name != "Brianna" {
		t.Fatalf("expected rejoin to refresh name, got %+v", state.Me)
	}
}

func TestJoinRoomNormalizesCode(t *testing.T) {
	e := newTestEngine(t)
	code := mustCreateRoom(t, e, "Ada", tokenA)
	mustJoinRoom(t, e, "  "+strings.ToLower(code)+" ", "Brie", tokenB)

	state := mustGetState(t, e, code, tokenB)
	if len(state.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(state.Players))
	}
}

func TestJoinRoomNotFound(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.JoinRoom("ZZZZZ", "Ada", tokenA)
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLeaveRoomReassignsHostAndTurn(t *testing.T) {
	e := newTestEngine(t)
	code := mustCreateRoom(t, e, "Ada", tokenA)
	mustJoinRoom(t, e, code, "Brie", tokenB)

	result, err := e.LeaveRoom(code, tokenA)
	if err != nil {
		t.Fatalf("leave room: %v", err)
	}
	if !result.Left || result.RoomClosed {
		t.Fatalf("expected left without closing, got %+v", result)
	}

	state := mustGetState(t, e, code, tokenB)
	if state.Session.Phase != phaseLobby {
		t.Fatalf("expected phase reset to lobby, got %q", state.Session.Phase)
	}
	if state.Me == nil || !state.Me.IsHost || !state.Me.IsTurn {
		t.Fatalf("expected remaining player to inherit host and turn, got %+v", state.Me)
	}
}

func TestLeaveRoomClosesWhenEmpty(t *testing.T) {
	e := newTestEngine(t)
	code := mustCreateRoom(t, e, "Ada", tokenA)

	result, err := e.LeaveRoom(code, tokenA)
	if err != nil {
		t.Fatalf("leave room: %v", err)
	}
	if !result.Left || !result.RoomClosed {
		t.Fatalf("expected room closed, got %+v", result)
	}

	state, err := e.GetState(code, tokenA)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state != nil {
		t.Fatalf("expected nil state after room closed, got %+v", state)
	}
}

func TestLeaveRoomTwiceIsNoop(t *testing.T) {
	e := newTestEngine(t)
	code := mustCreateRoom(t, e, "Ada", tokenA)
	mustJoinRoom(t, e, code, "Brie", tokenB)

	if _, err := e.LeaveRoom(code, tokenA); err != nil {
		t.Fatalf("first leave: %v", err)
	}
	result, err := e.LeaveRoom(code, tokenA)
	if err != nil {
		t.Fatalf("second leave: %v", err)
	}
	if result.Left {
		t.Fatalf("expected second leave to be a no-op, got %+v", result)
	}
}

func TestLeaveUnknownRoom(t *testing.T) {
	e := newTestEngine(t)
	result, err := e.LeaveRoom("ZZZZZ", tokenA)
	if err != nil {
		t.Fatalf("leave unknown room: %v", err)
	}
	if result.Left || !result.RoomClosed {
		t.Fatalf("expected {left:false, room_closed:true}, got %+v", result)
	}
}

func TestHeartbeatRequiresMembership(t *testing.T) {
	e := newTestEngine(t)
	code := mustCreateRoom(t, e, "Ada", tokenA)

	if err := e.Heartbeat("ZZZZZ", tokenA); KindOf(err) != KindNotFound {
		t.Fatalf("expected not found for unknown room, got %v", err)
	}
	if err := e.Heartbeat(code, tokenB); KindOf(err) != KindForbidden {
		t.Fatalf("expected forbidden for non-member, got %v", err)
	}
	if err := e.Heartbeat(code, tokenA); err != nil {
		t.Fatalf("heartbeat as member: %v", err)
	}
}

func TestGetStateUnknownRoomIsNil(t *testing.T) {
	e := newTestEngine(t)
	state, err := e.GetState("ZZZZZ", tokenA)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state != nil {
		t.Fatalf("expected nil state, got %+v", state)
	}
}

func TestGetStateNonMemberHasNoMe(t *testing.T) {
	e := newTestEngine(t)
	code := mustCreateRoom(t, e, "Ada", tokenA)

	state := mustGetState(t, e, code, tokenC)
	if state.Me != nil {
		t.Fatalf("expected nil me for non-member, got %+v", state.Me)
	}
	if len(state.Players) != 1 {
		t.Fatalf("expected players still listed, got %d", len(state.Players))
	}
}

func TestSessionTimestampsAdvance(t *testing.T) {
	e := newTestEngine(t)
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return clock }

	code := mustCreateRoom(t, e, "Ada", tokenA)
	created := sessionRow(t, e, code)

	clock = clock.Add(time.Minute)
	mustJoinRoom(t, e, code, "Brie", tokenB)
	if _, err := e.LeaveRoom(code, tokenB); err != nil {
		t.Fatalf("leave: %v", err)
	}

	updated := sessionRow(t, e, code)
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("expected updated_at to advance, got %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}
}
