package goch_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gw "tripbot/gateway/gateway"
	"tripbot/gateway/goch"
)

func receive[M any](t *testing.T, ch <-chan M) M {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		panic("unreachable")
	}
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	g := goch.NewGateway(4)

	_, ch1, err := g.Inbound().Subscribe()
	require.NoError(t, err)
	_, ch2, err := g.Inbound().Subscribe()
	require.NoError(t, err)

	msg := gw.Inbound{UserID: 1, Username: "ann", Text: "/start"}
	require.NoError(t, g.Inbound().Publish(msg))

	assert.Equal(t, msg, receive(t, ch1))
	assert.Equal(t, msg, receive(t, ch2))
}

func TestPublishWithoutSubscribersIsDropped(t *testing.T) {
	g := goch.NewGateway(4)
	assert.NoError(t, g.Outbound().Publish(gw.Outbound{UserID: 1}))
}

func TestDeSubscribeClosesChannel(t *testing.T) {
	g := goch.NewGateway(4)

	id, ch, err := g.Inbound().Subscribe()
	require.NoError(t, err)
	require.NoError(t, g.Inbound().DeSubscribe(id))

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after DeSubscribe")

	// Unknown IDs are a no-op.
	assert.NoError(t, g.Inbound().DeSubscribe(id))

	// Publishing afterwards reaches nobody but still succeeds.
	assert.NoError(t, g.Inbound().Publish(gw.Inbound{UserID: 1}))
}

func TestPublishFailsWhenSubscriberBufferIsFull(t *testing.T) {
	g := goch.NewGateway(1)

	_, _, err := g.Outbound().Subscribe()
	require.NoError(t, err)

	require.NoError(t, g.Outbound().Publish(gw.Outbound{UserID: 1}))
	err = g.Outbound().Publish(gw.Outbound{UserID: 2})
	assert.ErrorIs(t, err, goch.ErrQueueFull)
}
