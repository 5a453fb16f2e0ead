package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DaanHessen/rabbithole/internal/engine"
	"github.com/DaanHessen/rabbithole/internal/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("1.2.3")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// sandbox points the sqlite store and the log file at a temp dir.
func sandbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("QUEST_STORE_DRIVER", "sqlite")
	t.Setenv("QUEST_STORE_PATH", filepath.Join(dir, "quest.db"))
	t.Setenv("QUEST_LOG_OUTPUT", filepath.Join(dir, "quest.log"))
	t.Setenv("QUEST_NAMESPACE", "matrix")
	return dir
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand("dev")
	require.NotNil(t, cmd)
	assert.Equal(t, "rabbithole", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand("dev")
	commands := [][]string{
		{"play"}, {"progress"}, {"reset"}, {"whoami"}, {"migrate"}, {"version"},
		{"admin", "overview"}, {"admin", "users"}, {"admin", "export"},
	}
	for _, path := range commands {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand("dev")
	for _, name := range []string{"env-file", "store", "api", "namespace", "log-level"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestVersionNeedsNoConfig(t *testing.T) {
	t.Setenv("QUEST_STORE_DRIVER", "bogus")
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "rabbithole 1.2.3\n", out)
}

func TestInvalidFormatIsACommandError(t *testing.T) {
	sandbox(t)
	_, err := execute(t, "--format", "yaml", "progress")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStoreFlagOverridesEnvironment(t *testing.T) {
	sandbox(t)
	_, err := execute(t, "--store", "bogus", "progress")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestProgressAndReset(t *testing.T) {
	dir := sandbox(t)
	ctx := context.Background()

	kv, err := store.OpenSQLite(ctx, filepath.Join(dir, "quest.db"))
	require.NoError(t, err)
	st := engine.DefaultState()
	st.CurrentScene = engine.SceneFinalChoice
	st.Choices[engine.SceneOne] = engine.ChoiceFollowRabbit
	st.Achievements = append(st.Achievements, engine.AchievementDejaVu)
	require.NoError(t, store.NewQuestStore(kv, "matrix", zap.NewNop()).Save(ctx, st))
	require.NoError(t, kv.Close())

	out, err := execute(t, "--format", "json", "progress")
	require.NoError(t, err)
	var report ProgressReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, engine.SceneFinalChoice, report.CurrentScene)
	assert.Equal(t, 1, report.ChoicesMade)
	require.Len(t, report.Badges, 1)
	assert.Equal(t, "Deja Vu", report.Badges[0].Name)
	assert.NotEmpty(t, report.UserID)

	text, err := execute(t, "progress")
	require.NoError(t, err)
	assert.Contains(t, text, "Scene:       final_choice")
	assert.Contains(t, text, "🐱 Deja Vu")

	_, err = execute(t, "reset")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "reset", "--yes")
	require.NoError(t, err)

	out, err = execute(t, "--format", "json", "progress")
	require.NoError(t, err)
	var after ProgressReport
	require.NoError(t, json.Unmarshal([]byte(out), &after))
	assert.Equal(t, engine.SceneLoading, after.CurrentScene)
	assert.Empty(t, after.Badges)
	assert.Equal(t, report.UserID, after.UserID)
}

func TestWhoAmIIsStable(t *testing.T) {
	sandbox(t)
	out, err := execute(t, "--format", "json", "whoami")
	require.NoError(t, err)
	var first Identity
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	assert.Regexp(t, `^user_\d+_[a-z2-7]{13}$`, first.UserID)
	assert.False(t, first.Returning)

	out, err = execute(t, "--format", "json", "whoami")
	require.NoError(t, err)
	var second Identity
	require.NoError(t, json.Unmarshal([]byte(out), &second))
	assert.Equal(t, first.UserID, second.UserID)
	assert.True(t, second.Returning)
	assert.NotNil(t, second.FirstVisit)
}

func TestMigrateSQLite(t *testing.T) {
	sandbox(t)
	out, err := execute(t, "migrate", "up")
	require.NoError(t, err)
	assert.Equal(t, "Migrations applied\n", out)

	out, err = execute(t, "migrate", "version")
	require.NoError(t, err)
	assert.Equal(t, "Schema version 1\n", out)
}

func TestMigrateRejectsSchemalessDrivers(t *testing.T) {
	sandbox(t)
	_, err := execute(t, "--store", "redis", "migrate", "up")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestAdminOverview(t *testing.T) {
	sandbox(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "/api/v1/admin/analytics/overview", r.URL.Path)
		assert.Equal(t, "30", r.URL.Query().Get("days"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_users":42,"completed_quests":7,"completion_rate":16.7}`))
	}))
	defer srv.Close()
	t.Setenv("QUEST_API_URL", srv.URL)
	t.Setenv("QUEST_ADMIN_PASSWORD", "secret")

	out, err := execute(t, "admin", "overview", "--days", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "last 30 days")
	assert.Regexp(t, `Total users\s+42`, out)
	assert.Regexp(t, `Completion rate\s+16\.7%`, out)
}

func TestAdminBackendDownIsAFailure(t *testing.T) {
	sandbox(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	t.Setenv("QUEST_API_URL", srv.URL)

	_, err := execute(t, "admin", "users")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
