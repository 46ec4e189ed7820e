package datastore

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speechlens/speechlens-go/internal/conf"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	store := &SQLiteStore{Settings: settings}
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testAnalysis(userID uint) *Analysis {
	return &Analysis{
		PublicID:        uuid.NewString(),
		UserID:          userID,
		Filename:        "talk.mp4",
		Duration:        42.5,
		DominantEmotion: "happy",
		AvgWPS:          2.1,
		ClarityScore:    80.0,
		TotalWords:      90,
		Timeline:        []byte(`[]`),
		EmotionMetrics:  []byte(`{}`),
		ClarityMetrics:  []byte(`{}`),
		Feedback:        []byte(`{}`),
	}
}

func TestNewSelectsStore(t *testing.T) {
	t.Parallel()

	sqliteSettings := &conf.Settings{}
	sqliteSettings.Output.SQLite.Enabled = true
	assert.IsType(t, &SQLiteStore{}, New(sqliteSettings))

	mysqlSettings := &conf.Settings{}
	mysqlSettings.Output.MySQL.Enabled = true
	assert.IsType(t, &MySQLStore{}, New(mysqlSettings))

	assert.Nil(t, New(&conf.Settings{}))
}

func TestGetOrCreateUser(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	user, err := store.GetOrCreateUser("auth0|123", "a@example.com", "Alex", "")
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	firstLogin := user.LastLogin

	// Same subject returns the same row with refreshed profile fields.
	again, err := store.GetOrCreateUser("auth0|123", "new@example.com", "Alexandra", "pic.png")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "new@example.com", again.Email)
	assert.Equal(t, "Alexandra", again.Name)
	assert.False(t, again.LastLogin.Before(firstLogin))
}

func TestGetOrCreateUserEmptySubject(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	_, err := store.GetOrCreateUser("", "a@example.com", "", "")
	assert.Error(t, err)
}

func TestSaveAndGetAnalysis(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	user, err := store.GetOrCreateUser("auth0|abc", "a@example.com", "A", "")
	require.NoError(t, err)

	saved := testAnalysis(user.ID)
	require.NoError(t, store.SaveAnalysis(saved))

	got, err := store.GetAnalysis(saved.PublicID)
	require.NoError(t, err)
	assert.Equal(t, "talk.mp4", got.Filename)
	assert.Equal(t, "happy", got.DominantEmotion)
	assert.Equal(t, 90, got.TotalWords)
	assert.JSONEq(t, `[]`, string(got.Timeline))
}

func TestGetAnalysisNotFound(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	_, err := store.GetAnalysis("no-such-id")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestGetUserAnalyses(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	user, err := store.GetOrCreateUser("auth0|list", "list@example.com", "", "")
	require.NoError(t, err)
	other, err := store.GetOrCreateUser("auth0|other", "other@example.com", "", "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveAnalysis(testAnalysis(user.ID)))
	}
	require.NoError(t, store.SaveAnalysis(testAnalysis(other.ID)))

	mine, err := store.GetUserAnalyses(user.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 3, "listing is scoped to the owning user")

	limited, err := store.GetUserAnalyses(user.ID, 2, 0)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestDeleteAnalysisScopedToOwner(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	owner, err := store.GetOrCreateUser("auth0|owner", "owner@example.com", "", "")
	require.NoError(t, err)
	stranger, err := store.GetOrCreateUser("auth0|stranger", "stranger@example.com", "", "")
	require.NoError(t, err)

	saved := testAnalysis(owner.ID)
	require.NoError(t, store.SaveAnalysis(saved))

	err = store.DeleteAnalysis(saved.PublicID, stranger.ID)
	require.Error(t, err, "another user must not delete the analysis")
	assert.True(t, IsNotFound(err))

	require.NoError(t, store.DeleteAnalysis(saved.PublicID, owner.ID))
	_, err = store.GetAnalysis(saved.PublicID)
	assert.True(t, IsNotFound(err))
}

func TestDeleteUserCascadesAnalyses(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	user, err := store.GetOrCreateUser("auth0|cascade", "cascade@example.com", "", "")
	require.NoError(t, err)

	saved := testAnalysis(user.ID)
	require.NoError(t, store.SaveAnalysis(saved))

	require.NoError(t, store.DeleteUser("auth0|cascade"))

	_, err = store.GetUser("auth0|cascade")
	assert.True(t, IsNotFound(err))

	_, err = store.GetAnalysis(saved.PublicID)
	assert.True(t, IsNotFound(err), "analyses go with their user")
}
