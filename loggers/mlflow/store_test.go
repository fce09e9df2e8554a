package mlflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore("file://" + t.TempDir())
	require.NoError(t, err)

	return store
}

func TestNewStoreURIHandling(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name        string
		uri         string
		expectError bool
	}{
		{name: "file URI", uri: "file://" + dir},
		{name: "plain path", uri: filepath.Join(dir, "plain")},
		{name: "http URI", uri: "https://tracking.example.com", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.uri)

			if tt.expectError {
				assert.ErrorIs(t, err, ErrUnsupportedURI)
				return
			}

			require.NoError(t, err)

			info, statErr := os.Stat(store.Root())
			require.NoError(t, statErr)
			assert.True(t, info.IsDir())
		})
	}
}

func TestGetOrCreateExperiment(t *testing.T) {
	store := newTestStore(t)

	first, err := store.GetOrCreateExperiment("ramala")
	require.NoError(t, err)
	assert.Equal(t, "0", first.ID)
	assert.Equal(t, "ramala", first.Name)

	// Same name resolves to the existing experiment.
	again, err := store.GetOrCreateExperiment("ramala")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	// A new name gets the next numeric id.
	other, err := store.GetOrCreateExperiment("other")
	require.NoError(t, err)
	assert.Equal(t, "1", other.ID)
}

func TestRunLifecycle(t *testing.T) {
	store := newTestStore(t)

	experiment, err := store.GetOrCreateExperiment("ramala")
	require.NoError(t, err)

	run, err := store.CreateRun(experiment.ID, "run")
	require.NoError(t, err)
	assert.Len(t, run.ID, 32)
	assert.Equal(t, StatusRunning, run.Status)

	fetched, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, fetched)

	require.NoError(t, store.SetTerminated(run.ID))

	fetched, err = store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, fetched.Status)
}

func TestRunNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetRun("0123456789abcdef0123456789abcdef")
	assert.ErrorIs(t, err, ErrRunNotFound)

	err = store.LogMetric("0123456789abcdef0123456789abcdef", "foo", 1.0, 0)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestMetricHistory(t *testing.T) {
	store := newTestStore(t)

	experiment, err := store.GetOrCreateExperiment("ramala")
	require.NoError(t, err)

	run, err := store.CreateRun(experiment.ID, "run")
	require.NoError(t, err)

	points := []struct {
		value float64
		step  int64
	}{
		{value: 0.25, step: 1},
		{value: 0.5, step: 10},
		{value: 0.75, step: 11},
	}

	for _, p := range points {
		require.NoError(t, store.LogMetric(run.ID, "foo", p.value, p.step))
	}

	history, err := store.GetMetricHistory(run.ID, "foo")
	require.NoError(t, err)
	require.Len(t, history, 3)

	for i, metric := range history {
		assert.Equal(t, "foo", metric.Key)
		assert.Equal(t, points[i].value, metric.Value)
		assert.Equal(t, points[i].step, metric.Step)
		assert.Positive(t, metric.Timestamp)
	}
}

func TestParams(t *testing.T) {
	store := newTestStore(t)

	experiment, err := store.GetOrCreateExperiment("ramala")
	require.NoError(t, err)

	run, err := store.CreateRun(experiment.ID, "run")
	require.NoError(t, err)

	require.NoError(t, store.LogParam(run.ID, "lr", "0.001"))

	value, err := store.GetParam(run.ID, "lr")
	require.NoError(t, err)
	assert.Equal(t, "0.001", value)
}

func TestArtifacts(t *testing.T) {
	store := newTestStore(t)

	experiment, err := store.GetOrCreateExperiment("ramala")
	require.NoError(t, err)

	run, err := store.CreateRun(experiment.ID, "run")
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "clip.gif")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	require.NoError(t, store.LogArtifact(run.ID, src, "videos"))

	names, err := store.ListArtifacts(run.ID, "videos")
	require.NoError(t, err)
	assert.Equal(t, []string{"clip.gif"}, names)

	localDir, err := store.DownloadArtifacts(run.ID, "videos", t.TempDir())
	require.NoError(t, err)

	downloaded, err := os.ReadFile(filepath.Join(localDir, "clip.gif"))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), downloaded)
}

func TestExperimentMetaOnDisk(t *testing.T) {
	store := newTestStore(t)

	experiment, err := store.GetOrCreateExperiment("ramala")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(store.Root(), experiment.ID, "meta.yaml"))
	require.NoError(t, err)

	content := string(raw)
	assert.Contains(t, content, "name: ramala")
	assert.Contains(t, content, `experiment_id: "0"`)
	assert.Contains(t, content, "lifecycle_stage: active")
}
