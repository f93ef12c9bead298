package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/winklock/internal/gesture"
	"github.com/ayusman/winklock/internal/session"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	_, err := os.Stat(dbPath)
	require.True(t, os.IsNotExist(err))

	s, err := New(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
	assert.Equal(t, dbPath, s.Path())
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"attempts", "settings"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		require.NoError(t, err, "table %s", table)
		assert.Equal(t, table, name)
	}
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Attempts().Create(&Attempt{ID: "a1", Result: ResultFail, Code: "0", MaxDigit: 1, CreatedAt: time.Now()}))
	require.NoError(t, s.Close())

	s, err = New(dbPath)
	require.NoError(t, err)
	defer s.Close()

	a, err := s.Attempts().GetByID("a1")
	require.NoError(t, err)
	assert.Equal(t, ResultFail, a.Result)
}

func TestAttempts_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	in := &Attempt{
		ID:          "abc",
		Result:      ResultSuccess,
		CommandName: "DEFAULT LOGIN",
		ActionID:    "login",
		Code:        "010101",
		MaxDigit:    6,
		CreatedAt:   at,
	}
	require.NoError(t, s.Attempts().Create(in))

	got, err := s.Attempts().GetByID("abc")
	require.NoError(t, err)
	assert.Equal(t, in.Result, got.Result)
	assert.Equal(t, in.CommandName, got.CommandName)
	assert.Equal(t, in.ActionID, got.ActionID)
	assert.Equal(t, in.Code, got.Code)
	assert.Equal(t, in.MaxDigit, got.MaxDigit)
	assert.True(t, at.Equal(got.CreatedAt), "created_at %v", got.CreatedAt)
}

func TestAttempts_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Attempts().GetByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttempts_Create_RejectsBadResult(t *testing.T) {
	s := newTestStore(t)
	err := s.Attempts().Create(&Attempt{ID: "x", Result: "maybe", Code: "0", CreatedAt: time.Now()})
	assert.Error(t, err)
}

func TestAttempts_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		require.NoError(t, s.Attempts().Create(&Attempt{
			ID:        id,
			Result:    ResultFail,
			Code:      "000",
			MaxDigit:  3,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := s.Attempts().List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].ID)
	assert.Equal(t, "first", all[2].ID)

	two, err := s.Attempts().List(2)
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, "second", two[1].ID)
}

func TestAttempts_ListEmpty(t *testing.T) {
	s := newTestStore(t)
	all, err := s.Attempts().List(10)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestAttempts_Stats(t *testing.T) {
	s := newTestStore(t)

	st, err := s.Attempts().Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, st.Total)
	assert.Nil(t, st.LastAt)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	results := []Result{ResultSuccess, ResultFail, ResultFail}
	for i, r := range results {
		require.NoError(t, s.Attempts().Create(&Attempt{
			ID:        string(rune('a' + i)),
			Result:    r,
			Code:      "1",
			MaxDigit:  1,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	st, err = s.Attempts().Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 1, st.Successes)
	assert.Equal(t, 2, st.Failures)
	require.NotNil(t, st.LastAt)
	assert.True(t, base.Add(2*time.Second).Equal(*st.LastAt))
}

func TestAttempts_Prune(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Attempts().Create(&Attempt{ID: "old", Result: ResultFail, Code: "0", MaxDigit: 1, CreatedAt: base}))
	require.NoError(t, s.Attempts().Create(&Attempt{ID: "new", Result: ResultFail, Code: "0", MaxDigit: 1, CreatedAt: base.Add(time.Hour)}))

	n, err := s.Attempts().Prune(base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.Attempts().GetByID("old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Attempts().GetByID("new")
	assert.NoError(t, err)
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)
	settings := s.Settings()

	_, err := settings.Get(SettingEnabled)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, settings.Bool(SettingEnabled, true))

	require.NoError(t, settings.SetBool(SettingEnabled, false))
	assert.False(t, settings.Bool(SettingEnabled, true))

	require.NoError(t, settings.SetBool(SettingEnabled, true))
	v, err := settings.Get(SettingEnabled)
	require.NoError(t, err)
	assert.Equal(t, "true", v)

	require.NoError(t, settings.Set(SettingEnabled, "garbage"))
	assert.False(t, settings.Bool(SettingEnabled, false))
}

func TestRecorder_StoresResults(t *testing.T) {
	s := newTestStore(t)
	rec := NewRecorder(s, nil)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rec.Observe(session.Event{Kind: session.EventSymbol, Symbol: gesture.One, At: at})
	rec.Observe(session.Event{
		Kind:     session.EventResult,
		Sequence: []gesture.Symbol{0, 1, 0},
		MaxDigit: 3,
		Result:   gesture.MatchResult{Matched: true, CommandName: "Door", ActionID: "open_door"},
		At:       at,
	})
	rec.Observe(session.Event{
		Kind:     session.EventResult,
		Sequence: []gesture.Symbol{1, 1, 1},
		MaxDigit: 3,
		At:       at.Add(time.Second),
	})

	all, err := s.Attempts().List(10)
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, ResultFail, all[0].Result)
	assert.Equal(t, "111", all[0].Code)
	assert.Empty(t, all[0].CommandName)

	assert.Equal(t, ResultSuccess, all[1].Result)
	assert.Equal(t, "010", all[1].Code)
	assert.Equal(t, "Door", all[1].CommandName)
	assert.Equal(t, "open_door", all[1].ActionID)
	assert.Equal(t, 3, all[1].MaxDigit)
	assert.Len(t, all[1].ID, 36)
}
