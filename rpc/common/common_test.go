package common

import (
	"bytes"
	"encoding/json"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/require"
	"log"
	"strings"
	"testing"
)

func TestMessageTypeJSON(t *testing.T) {
	for mt := MsgTUnknown; mt < msgTEnd; mt++ {
		data, err := json.Marshal(mt)
		require.NoError(t, err)

		var got MessageType
		require.NoError(t, json.Unmarshal(data, &got))
		require.Equal(t, mt, got, "type %s", mt)
	}

	var mt MessageType
	require.Error(t, json.Unmarshal([]byte(`"bogus"`), &mt))
}

func TestMessageTypeIsEvent(t *testing.T) {
	require.True(t, MsgTEventEntryAdded.IsEvent())
	require.True(t, MsgTEventEntryRemoved.IsEvent())
	require.False(t, MsgTMapAddListener.IsEvent())
	require.False(t, msgTEnd.IsEvent())
}

func TestResponseFactoriesCarryErrors(t *testing.T) {
	msg := NewGetResponse(nil, false, errString("no such map"))
	require.Equal(t, "no such map", msg.Err)
	require.Equal(t, MsgTMapGet, msg.MsgType)

	msg = NewAddListenerResponse(3, nil)
	require.True(t, msg.Ok)
	require.Equal(t, int32(3), msg.ListenerID)
	require.Empty(t, msg.Err)
}

func TestLoggerFormatAndLevel(t *testing.T) {
	l, ok := CreateLogger("transport/conn").(*dGridLogger)
	require.True(t, ok)
	require.Equal(t, logger.INFO, l.level)

	var buf bytes.Buffer
	l.logger = log.New(&buf, "", 0)
	l.Debugf("hidden")
	l.Warningf("connection %d lost", 3)

	require.Equal(t, "WARN  | transport/conn  | connection 3 lost\n", buf.String())
}

func TestParseLogLevel(t *testing.T) {
	require.Equal(t, logger.DEBUG, parseLogLevel("DEBUG"))
	require.Equal(t, logger.WARNING, parseLogLevel("warn"))
	require.Equal(t, logger.ERROR, parseLogLevel("error"))
	require.Panics(t, func() { parseLogLevel("verbose") })
}

func TestClientConfigString(t *testing.T) {
	c := ClientConfig{
		Endpoints:      []string{"localhost:5701", "localhost:5702"},
		TimeoutSecond:  5,
		PartitionCount: 271,
		ClientType:     "GOC",
	}
	out := c.String()
	require.True(t, strings.Contains(out, "localhost:5702"))
	require.True(t, strings.Contains(out, "271"))
	require.True(t, strings.Contains(out, "system default"))
}

type errString string

func (e errString) Error() string { return string(e) }
