package statsd

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePrefix(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"  bullboard.api  ": "bullboard.api",
		"..foo..":           "foo",
		".":                 "",
		"":                  "",
	}
	for input, want := range tests {
		assert.Equal(t, want, sanitizePrefix(input), input)
	}
}

func TestNormalizeMetricName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" board/action ": "board_action",
		"foo..bar":       "foo.bar",
		"multi  space":   "multi__space",
		"a:b|c":          "a_b_c",
		"  ":             "",
	}
	for input, want := range tests {
		assert.Equal(t, want, normalizeMetricName(input), input)
	}
}

func TestFormatTags(t *testing.T) {
	t.Parallel()

	global := map[string]string{"env": "prod", " service ": " bullboard "}
	local := map[string]string{"result": " success ", "": "ignored", "env": "stage"}

	assert.Equal(t, "|#env:stage,result:success,service:bullboard", formatTags(global, local))
	assert.Empty(t, formatTags(nil, nil))
}

func TestClientLine(t *testing.T) {
	t.Parallel()

	c := &Client{prefix: "bullboard", globalTags: map[string]string{"env": "test"}}
	assert.Equal(t, "bullboard.board.action:1|c|#env:test,operation:retry",
		c.line("board.action", "1", "c", map[string]string{"operation": "retry"}))
	assert.Empty(t, c.line(" ", "1", "c", nil))

	c = &Client{}
	assert.Equal(t, "board.snapshot:12.5|ms", c.line("board.snapshot", "12.5", "ms", nil))
}

func TestClientSendsOverUDP(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	client, err := NewClient(Config{Enabled: true, Address: pc.LocalAddr().String(), Prefix: "bb"})
	require.NoError(t, err)
	defer client.Close()
	require.True(t, client.Enabled())

	client.Timing("board.snapshot", 1500*time.Microsecond, map[string]string{"result": "success"})

	buf := make([]byte, 512)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "bb.board.snapshot:1.5|ms|#result:success", string(buf[:n]))
}

func TestClientEnabledAndClose(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{conn: clientConn}
	assert.True(t, client.Enabled())
	require.NoError(t, client.Close())
	assert.False(t, client.Enabled())
	require.NoError(t, client.Close())

	// dropped silently once closed
	client.Count("board.action", 1, nil)

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
	require.NoError(t, nilClient.Close())
	nilClient.Gauge("board.jobs", 1, nil)
}

func TestNewClientDisabled(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Enabled: true, Address: "   "})
	require.NoError(t, err)
	assert.False(t, client.Enabled())

	client, err = NewClient(Config{Enabled: false, Address: "127.0.0.1:8125"})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
}

func TestNewClientDialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "statsd dial"))
}
