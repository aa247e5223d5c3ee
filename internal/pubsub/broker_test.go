package pubsub

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchGlob(t *testing.T) {
	require.True(t, MatchGlob("news.*", "news.sports"))
	require.True(t, MatchGlob("news.?ports", "news.sports"))
	require.False(t, MatchGlob("news.?ports", "news.esports"))
	require.True(t, MatchGlob("[a-c]hannel", "bhannel"))
	require.False(t, MatchGlob("[^a-c]hannel", "bhannel"))
	require.True(t, MatchGlob("*", "anything"))
	require.True(t, MatchGlob("exact", "exact"))
	require.False(t, MatchGlob("exact", "exactly"))
}

func TestPublishSubscribeExactChannel(t *testing.T) {
	b := New(4, 0)
	sub := b.Subscribe("news")

	n, err := b.Publish("news", NewBytesPayload([]byte("hello")))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	res := sub.Recv()
	require.False(t, res.Closed)
	require.Equal(t, "news", res.Message.Channel)
	require.Equal(t, []byte("hello"), res.Message.Payload.Bytes())
}

func TestPublishNoSubscribersIsNotAnError(t *testing.T) {
	b := New(4, 0)
	n, err := b.Publish("quiet", NewBytesPayload([]byte("x")))
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestPatternSubscriptionMatches(t *testing.T) {
	b := New(4, 0)
	sub := b.PSubscribe("news.*")

	_, err := b.Publish("news.sports", NewBytesPayload([]byte("goal")))
	require.NoError(t, err)

	res := sub.Recv()
	require.Equal(t, "news.sports", res.Message.Channel)
}

func TestFullInboxDropsOldestAndCountsLag(t *testing.T) {
	b := New(2, 0)
	sub := b.Subscribe("ch")

	_, _ = b.Publish("ch", NewBytesPayload([]byte("1")))
	_, _ = b.Publish("ch", NewBytesPayload([]byte("2")))
	_, _ = b.Publish("ch", NewBytesPayload([]byte("3"))) // drops "1"

	res := sub.Recv()
	require.Equal(t, uint64(1), res.Lagged)

	res = sub.Recv()
	require.Equal(t, []byte("2"), res.Message.Payload.Bytes())
}

func TestUnsubscribeClosesInbox(t *testing.T) {
	b := New(4, 0)
	sub := b.Subscribe("ch")
	sub.Unsubscribe()

	res := sub.Recv()
	require.True(t, res.Closed)
	require.Equal(t, 0, b.NumSubscribers("ch"))
}

func TestPublishRejectsOversizedMessage(t *testing.T) {
	b := New(4, 8)
	_, err := b.Publish("ch", NewBytesPayload([]byte("way too long for the limit")))
	require.Error(t, err)
}

func TestTryRecvEmptyReturnsFalse(t *testing.T) {
	b := New(4, 0)
	sub := b.Subscribe("ch")
	_, ok := sub.TryRecv()
	require.False(t, ok)
}

func TestJSONPayloadRoundTrip(t *testing.T) {
	type event struct {
		Name string `json:"name"`
	}
	p, err := NewJSONPayload(event{Name: "x"})
	require.NoError(t, err)

	var got event
	require.NoError(t, p.DecodeJSON(&got))
	require.Equal(t, "x", got.Name)
}
