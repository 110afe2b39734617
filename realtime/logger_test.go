package realtime_test

import (
	"testing"

	"github.com/convitepro/realtime-go/realtime"
	"github.com/convitepro/realtime-go/realtime/realtimetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	for l := realtime.LogNone; l <= realtime.LogDebug; l++ {
		got, err := realtime.ParseLogLevel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	_, err := realtime.ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestLoggerOptions(t *testing.T) {
	logs := &realtimetest.LogRecorder{}
	opts := realtime.LoggerOptions{Logger: logs, Level: realtime.LogInfo}

	opts.Printf(realtime.LogError, "shown %d", 1)
	opts.Printf(realtime.LogInfo, "shown %d", 2)
	opts.Printf(realtime.LogDebug, "hidden")

	assert.Equal(t, []realtimetest.LogLine{
		{Level: realtime.LogError, Message: "shown 1"},
		{Level: realtime.LogInfo, Message: "shown 2"},
	}, logs.Lines())

	none := realtime.LoggerOptions{Logger: logs, Level: realtime.LogNone}
	assert.False(t, none.Is(realtime.LogError))
	realtime.LoggerOptions{}.Printf(realtime.LogError, "no logger, no panic")
}
