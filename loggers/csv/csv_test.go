package csv

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"testing"

	"github.com/rayanht/rl/loggers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogScalar(t *testing.T) {
	tests := []struct {
		name  string
		steps []int64
	}{
		{name: "auto-incremented steps", steps: nil},
		{name: "explicit steps", steps: []int64{1, 10, 11}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(0))
			logDir := t.TempDir()

			logger, err := New(logDir, "ramala")
			require.NoError(t, err)
			defer logger.Close()

			values := make([]float64, 3)
			for i := range values {
				values[i] = rng.Float64()

				var opts []loggers.Option
				if tt.steps != nil {
					opts = append(opts, loggers.WithStep(tt.steps[i]))
				}

				require.NoError(t, logger.LogScalar("foo", values[i], opts...))
			}

			content, err := os.ReadFile(logger.ScalarPath("foo"))
			require.NoError(t, err)

			rows := strings.SplitAfter(string(content), "\n")
			rows = rows[:len(rows)-1] // drop the empty tail after the final newline
			require.Len(t, rows, 3)

			for i, row := range rows {
				step := int64(i)
				if tt.steps != nil {
					step = tt.steps[i]
				}

				assert.Equal(t, fmt.Sprintf("%d,%s\n", step, FormatValue(values[i])), row)
			}
		})
	}
}

func TestLogScalarIndependentCountersPerMetric(t *testing.T) {
	logger, err := New(t.TempDir(), "ramala")
	require.NoError(t, err)
	defer logger.Close()

	require.NoError(t, logger.LogScalar("foo", 1.0))
	require.NoError(t, logger.LogScalar("foo", 2.0))
	require.NoError(t, logger.LogScalar("bar", 3.0))

	fooContent, err := os.ReadFile(logger.ScalarPath("foo"))
	require.NoError(t, err)
	assert.Equal(t, "0,1\n1,2\n", string(fooContent))

	barContent, err := os.ReadFile(logger.ScalarPath("bar"))
	require.NoError(t, err)
	assert.Equal(t, "0,3\n", string(barContent))
}

func TestLogScalarRejectsNegativeStep(t *testing.T) {
	logger, err := New(t.TempDir(), "ramala")
	require.NoError(t, err)
	defer logger.Close()

	err = logger.LogScalar("foo", 1.0, loggers.WithStep(-1))
	assert.ErrorIs(t, err, loggers.ErrInvalidStep)
}

func TestCloseStopsLogging(t *testing.T) {
	logger, err := New(t.TempDir(), "ramala")
	require.NoError(t, err)

	require.NoError(t, logger.LogScalar("foo", 1.0))
	require.NoError(t, logger.Close())

	assert.ErrorIs(t, logger.LogScalar("foo", 2.0), loggers.ErrClosed)

	// Close is idempotent.
	assert.NoError(t, logger.Close())
}

func TestNewRequiresExperimentName(t *testing.T) {
	_, err := New(t.TempDir(), "")
	assert.Error(t, err)
}

func TestNewCreatesScalarsDirectory(t *testing.T) {
	logDir := t.TempDir()

	logger, err := New(logDir, "ramala")
	require.NoError(t, err)
	defer logger.Close()

	assert.Equal(t, "ramala", logger.Name())

	info, err := os.Stat(logger.Dir() + "/scalars")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "0.5", FormatValue(0.5))
	assert.Equal(t, "3", FormatValue(3.0))
	assert.Equal(t, "0.1", FormatValue(0.1))
	assert.Equal(t, "1e-07", FormatValue(1e-7))
}
