package router

import (
	"net"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerServerInvokesHandler(t *testing.T) {
	t.Parallel()

	got := make(chan string, 4)
	srv, err := newTriggerServer(0, func(base string) { got <- base })
	require.NoError(t, err)
	defer srv.stop()
	srv.start()

	port := srv.conn.LocalAddr().(*net.UDPAddr).Port
	client := osc.NewClient("127.0.0.1", port)

	msg := osc.NewMessage(SceneEndedAddress)
	msg.Append("2")
	require.NoError(t, client.Send(msg))

	select {
	case base := <-got:
		assert.Equal(t, "2", base)
	case <-time.After(2 * time.Second):
		t.Fatal("scene-ended handler never fired")
	}
}

func TestTriggerServerIgnoresUnusableMessages(t *testing.T) {
	t.Parallel()

	got := make(chan string, 4)
	srv, err := newTriggerServer(0, func(base string) { got <- base })
	require.NoError(t, err)
	defer srv.stop()
	srv.start()

	port := srv.conn.LocalAddr().(*net.UDPAddr).Port
	client := osc.NewClient("127.0.0.1", port)

	// no argument: dropped
	require.NoError(t, client.Send(osc.NewMessage(SceneEndedAddress)))
	// wrong address: not dispatched to our handler
	other := osc.NewMessage("/somewhere/else")
	other.Append("1")
	require.NoError(t, client.Send(other))

	// a valid message still gets through afterwards
	msg := osc.NewMessage(SceneEndedAddress)
	msg.Append("3")
	require.NoError(t, client.Send(msg))

	select {
	case base := <-got:
		assert.Equal(t, "3", base)
	case <-time.After(2 * time.Second):
		t.Fatal("scene-ended handler never fired")
	}
}
