package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestNATS starts an embedded NATS server and returns its client URL.
func startTestNATS(t *testing.T) string {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1})
	require.NoError(t, err)
	srv.Start()
	t.Cleanup(srv.Shutdown)
	require.True(t, srv.ReadyForConnections(5*time.Second), "embedded NATS not ready")
	return srv.ClientURL()
}

func TestTopic(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{"default prefix", "", "vcadmin.ingredient.created"},
		{"custom prefix", "staging", "staging.ingredient.created"},
		{"trailing dot", "staging.", "staging.ingredient.created"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Topic(tt.prefix, EntityIngredient, ActionCreated))
		})
	}
	assert.Equal(t, "vcadmin.product.>", EntityTopic("", EntityProduct))
}

func TestNoopPublisher(t *testing.T) {
	var pub Publisher = NoopPublisher{}
	require.NoError(t, pub.Publish(context.Background(), "x", Event{}))
	require.NoError(t, pub.Close())
}

func TestNATSPublisher_Publish(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	require.NoError(t, err)
	defer pub.Close()

	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe("vcadmin.ingredient.>", ch)
	require.NoError(t, err)
	defer sub.Unsubscribe() //nolint:errcheck // test cleanup
	require.NoError(t, nc.Flush())

	event := Event{
		Entity:     EntityIngredient,
		Action:     ActionUpdated,
		Key:        "soy lecithin",
		Changes:    map[string]any{"class": "vegan"},
		OccurredAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	topic := Topic("", EntityIngredient, ActionUpdated)
	require.NoError(t, pub.Publish(context.Background(), topic, event))

	select {
	case msg := <-ch:
		assert.Equal(t, topic, msg.Subject)
		got, err := Decode(msg.Data)
		require.NoError(t, err)
		assert.Equal(t, "soy lecithin", got.Key)
		assert.Equal(t, "vegan", got.Changes["class"])
		assert.True(t, event.OccurredAt.Equal(got.OccurredAt))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestNATSPublisher_MarshalError(t *testing.T) {
	url := startTestNATS(t)
	pub, err := NewNATSPublisher(url)
	require.NoError(t, err)
	defer pub.Close()

	err = pub.Publish(context.Background(), "vcadmin.x.y", func() {})
	assert.ErrorContains(t, err, "marshaling event")
}

func TestNewNATSPublisher_Unreachable(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1")
	assert.Error(t, err)
}

func TestNATSSubscriber_ReceivesMatchingSubjects(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := NewNATSSubscriber(url)
	require.NoError(t, err)
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(EntityTopic("", EntityProduct))
	require.NoError(t, err)
	defer cancel()

	ctx := context.Background()
	require.NoError(t, pub.Publish(ctx, Topic("", EntityIngredient, ActionCreated), Event{Key: "ignored"}))
	require.NoError(t, pub.Publish(ctx, Topic("", EntityProduct, ActionUpdated), Event{Key: "0123456789012"}))

	select {
	case data := <-ch:
		var got Event
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "0123456789012", got.Key)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestNATSSubscriber_Cancel(t *testing.T) {
	url := startTestNATS(t)

	sub, err := NewNATSSubscriber(url)
	require.NoError(t, err)
	defer sub.Close()

	ch, cancel, err := sub.Subscribe("vcadmin.>")
	require.NoError(t, err)

	cancel()
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte("{"))
	assert.ErrorContains(t, err, "decoding event")
}
