package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_NoSubscribersIsNoop(t *testing.T) {
	b := NewBroadcaster(4)
	err := b.Publish("tasks", EventTypeTaskProgress, TaskProgressPayload{TaskID: "t1", Progress: 0.5})
	require.NoError(t, err)
}

func TestSubscribe_ReceivesPublishedEvent(t *testing.T) {
	b := NewBroadcaster(4)
	events, unsubscribe := b.Subscribe(TaskChannel("t1"))
	defer unsubscribe()

	err := b.Publish(TaskChannel("t1"), EventTypeTaskProgress, TaskProgressPayload{TaskID: "t1", Status: "in_progress", Progress: 0.2})
	require.NoError(t, err)

	select {
	case raw := <-events:
		var env Event
		require.NoError(t, json.Unmarshal(raw, &env))
		assert.Equal(t, EventTypeTaskProgress, env.Type)
		assert.Equal(t, TaskChannel("t1"), env.Channel)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestSubscribe_OnlyReceivesOwnChannel(t *testing.T) {
	b := NewBroadcaster(4)
	events, unsubscribe := b.Subscribe(TaskChannel("t1"))
	defer unsubscribe()

	require.NoError(t, b.Publish(TaskChannel("t2"), EventTypeTaskProgress, nil))

	select {
	case <-events:
		t.Fatal("subscriber to t1 should not receive t2's events")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe_ClosesChannelAndStopsDelivery(t *testing.T) {
	b := NewBroadcaster(4)
	events, unsubscribe := b.Subscribe("tasks")
	unsubscribe()

	_, ok := <-events
	assert.False(t, ok, "channel should be closed after unsubscribe")

	assert.Equal(t, 0, b.SubscriberCount("tasks"))
}

func TestSubscriberCount_TracksActiveSubscribers(t *testing.T) {
	b := NewBroadcaster(4)
	assert.Equal(t, 0, b.SubscriberCount("tasks"))

	_, unsub1 := b.Subscribe("tasks")
	_, unsub2 := b.Subscribe("tasks")
	assert.Equal(t, 2, b.SubscriberCount("tasks"))

	unsub1()
	assert.Equal(t, 1, b.SubscriberCount("tasks"))
	unsub2()
	assert.Equal(t, 0, b.SubscriberCount("tasks"))
}

func TestPublish_DropsOldestWhenSubscriberBufferFull(t *testing.T) {
	b := NewBroadcaster(1)
	events, unsubscribe := b.Subscribe("tasks")
	defer unsubscribe()

	require.NoError(t, b.Publish("tasks", EventTypeTaskProgress, TaskProgressPayload{Progress: 0.1}))
	require.NoError(t, b.Publish("tasks", EventTypeTaskProgress, TaskProgressPayload{Progress: 0.9}))

	raw := <-events
	var env Event
	require.NoError(t, json.Unmarshal(raw, &env))
	payload, ok := env.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.9, payload["progress"], "buffer of 1 should retain only the latest event")
}
