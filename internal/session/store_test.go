package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveenspark/opsdesk/pkg/domain"
)

func testSession() domain.Session {
	return domain.Session{
		UserID:          "u-42",
		Email:           "grace@example.com",
		DisplayName:     "Grace",
		Token:           "secret-token",
		Role:            domain.RoleManager,
		Permissions:     []domain.Permission{domain.PermUserRead, domain.PermItemCreate},
		ProfileImageRef: "https://cdn.example.com/grace.png",
	}
}

// failingStorage fails every write.
type failingStorage struct {
	MemoryStorage
}

func (f *failingStorage) Save([]byte) error { return errors.New("disk full") }
func (f *failingStorage) Delete() error     { return errors.New("read-only fs") }

// panickingStorage simulates a storage backend that blows up.
type panickingStorage struct{ MemoryStorage }

func (p *panickingStorage) Load() ([]byte, error) { panic("storage unavailable") }

func TestLoginThenCurrent(t *testing.T) {
	store := NewStore(NewMemoryStorage(nil), nil)
	s := testSession()

	require.NoError(t, store.Login(s))

	got, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, s, got)
}

func TestLoginRejectsIncompleteSession(t *testing.T) {
	storage := NewMemoryStorage(nil)
	store := NewStore(storage, nil)
	s := testSession()
	s.Token = ""

	err := store.Login(s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.ErrorIs(t, err, domain.ErrIncompleteSession)

	_, ok := store.Current()
	assert.False(t, ok)
	_, err = storage.Load()
	assert.ErrorIs(t, err, ErrNoRecord, "nothing should be persisted")
}

func TestLoginPersistFailureLeavesStateUnchanged(t *testing.T) {
	store := NewStore(&failingStorage{}, nil)
	notified := false
	store.Subscribe(func(domain.Session, bool) { notified = true })

	err := store.Login(testSession())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	_, ok := store.Current()
	assert.False(t, ok)
	assert.False(t, notified)
}

func TestCurrentReturnsCopy(t *testing.T) {
	store := NewStore(NewMemoryStorage(nil), nil)
	require.NoError(t, store.Login(testSession()))

	got, _ := store.Current()
	got.Permissions[0] = domain.PermAuditRead
	got.Role = domain.RoleAdmin

	again, _ := store.Current()
	assert.Equal(t, domain.PermUserRead, again.Permissions[0])
	assert.Equal(t, domain.RoleManager, again.Role)
}

func TestLoginDoesNotAliasCallerSlice(t *testing.T) {
	store := NewStore(NewMemoryStorage(nil), nil)
	s := testSession()
	require.NoError(t, store.Login(s))

	s.Permissions[0] = domain.PermAuditRead

	got, _ := store.Current()
	assert.Equal(t, domain.PermUserRead, got.Permissions[0])
}

func TestLogoutClearsMemoryAndStorage(t *testing.T) {
	storage := NewMemoryStorage(nil)
	store := NewStore(storage, nil)
	require.NoError(t, store.Login(testSession()))

	require.NoError(t, store.Logout())

	_, ok := store.Current()
	assert.False(t, ok)

	// A fresh process must not resurrect the old session.
	reloaded := NewStore(storage, nil)
	_, ok = reloaded.Bootstrap()
	assert.False(t, ok)
}

func TestLogoutIsIdempotent(t *testing.T) {
	store := NewStore(NewMemoryStorage(nil), nil)
	calls := 0
	store.Subscribe(func(domain.Session, bool) { calls++ })

	require.NoError(t, store.Logout())
	require.NoError(t, store.Logout())
	assert.Equal(t, 0, calls, "logout without a session notifies nobody")
}

func TestLogoutRemovesCorruptLeftover(t *testing.T) {
	storage := NewMemoryStorage([]byte(`{"userId":`))
	store := NewStore(storage, nil)
	_, ok := store.Bootstrap()
	require.False(t, ok)

	require.NoError(t, store.Logout())
	_, err := storage.Load()
	assert.ErrorIs(t, err, ErrNoRecord)
}

func TestLogoutStorageErrorStillSignsOut(t *testing.T) {
	fs := &failingStorage{}
	store := NewStore(fs, nil)
	sess := testSession()
	store.current.Store(&sess)

	err := store.Logout()
	require.Error(t, err)

	_, ok := store.Current()
	assert.False(t, ok)
}

func TestRoundTripThroughReload(t *testing.T) {
	storage := NewMemoryStorage(nil)
	first := NewStore(storage, nil)
	s := testSession()
	require.NoError(t, first.Login(s))

	second := NewStore(storage, nil)
	got, ok := second.Bootstrap()
	require.True(t, ok)
	assert.Equal(t, s, got)
}

func TestBootstrapFailsOpen(t *testing.T) {
	full, err := json.Marshal(testSession())
	require.NoError(t, err)

	tests := []struct {
		name    string
		storage Storage
	}{
		{"missing record", NewMemoryStorage(nil)},
		{"truncated json", NewMemoryStorage(full[:len(full)/2])},
		{"not json", NewMemoryStorage([]byte("hello"))},
		{"empty object", NewMemoryStorage([]byte("{}"))},
		{"missing token", NewMemoryStorage([]byte(`{"userId":"u","email":"e","displayName":"d","role":"STAFF"}`))},
		{"wrong types", NewMemoryStorage([]byte(`{"userId":1,"permissions":"all"}`))},
		{"storage panics", &panickingStorage{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(tt.storage, nil)
			var (
				got domain.Session
				ok  bool
			)
			require.NotPanics(t, func() { got, ok = store.Bootstrap() })
			assert.False(t, ok)
			assert.Equal(t, domain.Session{}, got)
		})
	}
}

func TestBootstrapRunsOnce(t *testing.T) {
	storage := NewMemoryStorage(nil)
	store := NewStore(storage, nil)
	_, ok := store.Bootstrap()
	require.False(t, ok)

	// Something else writes a record after startup; Bootstrap must not re-read it.
	data, err := json.Marshal(testSession())
	require.NoError(t, err)
	require.NoError(t, storage.Save(data))

	_, ok = store.Bootstrap()
	assert.False(t, ok)
}

func TestBootstrapDoesNotOverrideLogin(t *testing.T) {
	old := testSession()
	old.UserID = "old"
	data, err := json.Marshal(old)
	require.NoError(t, err)
	storage := NewMemoryStorage(data)
	store := NewStore(storage, nil)

	fresh := testSession()
	require.NoError(t, store.Login(fresh))

	got, ok := store.Bootstrap()
	require.True(t, ok)
	assert.Equal(t, "u-42", got.UserID)
}

func TestSubscribeNotifiesSynchronously(t *testing.T) {
	store := NewStore(NewMemoryStorage(nil), nil)

	type event struct {
		userID string
		ok     bool
	}
	var events []event
	cancel := store.Subscribe(func(s domain.Session, ok bool) {
		// Readers inside the callback already see the new state.
		cur, curOK := store.Current()
		assert.Equal(t, ok, curOK)
		assert.Equal(t, s.UserID, cur.UserID)
		events = append(events, event{s.UserID, ok})
	})

	require.NoError(t, store.Login(testSession()))
	require.NoError(t, store.Logout())
	cancel()
	require.NoError(t, store.Login(testSession()))

	assert.Equal(t, []event{{"u-42", true}, {"", false}}, events)
}

func TestFileStorageRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	fs := NewFileStorage(dir)

	_, err := fs.Load()
	require.ErrorIs(t, err, ErrNoRecord)

	store := NewStore(fs, nil)
	require.NoError(t, store.Login(testSession()))

	info, err := os.Stat(fs.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, ok := NewStore(NewFileStorage(dir), nil).Bootstrap()
	require.True(t, ok)
	assert.Equal(t, testSession(), got)

	require.NoError(t, store.Logout())
	_, err = os.Stat(fs.Path())
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, fs.Delete(), "deleting a missing record is not an error")
}

func TestFileStorageCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, RecordFile), []byte(`{"userId":"u-1","tok`), 0600))

	_, ok := NewStore(NewFileStorage(dir), nil).Bootstrap()
	assert.False(t, ok)
}
