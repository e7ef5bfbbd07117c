package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

type delivery struct {
	userID  string
	payload []byte
}

func startSubscriber(t *testing.T, client *redis.Client) (<-chan delivery, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	received := make(chan delivery, 8)
	ready := make(chan struct{})

	go func() {
		_ = NewSubscriber(client).Subscribe(ctx, func(userID string, payload []byte) {
			received <- delivery{userID, payload}
		})
	}()

	go func() {
		defer close(ready)
		for ctx.Err() == nil {
			n := client.PubSubNumSub(ctx, ChannelAnalysesChanges).Val()[ChannelAnalysesChanges]
			if n > 0 {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()
	<-ready
	return received, cancel
}

func TestStepProgress(t *testing.T) {
	steps := []string{StepValidating, StepCheckingCache, StepGenerating, StepPersisting, StepDone}

	for i, step := range steps {
		progress, ok := StepProgress[step]
		assert.True(t, ok, "step %s should have progress value", step)
		assert.NotEmpty(t, StepMessages[step])
		if i > 0 {
			assert.Less(t, StepProgress[steps[i-1]], progress)
		}
	}
	assert.Equal(t, 100, StepProgress[StepDone])
	assert.NotEmpty(t, StepMessages[StepFailed])
}

func TestNilPublisher(t *testing.T) {
	var p *Publisher
	assert.Nil(t, NewPublisher(nil))
	assert.NoError(t, p.PublishChange(context.Background(), &ChangeMessage{UserID: "u1"}))
	assert.NoError(t, p.PublishProgress(context.Background(), &ProgressMessage{UserID: "u1"}))
}

func TestPublishChange_Delivered(t *testing.T) {
	client := setupRedis(t)
	received, cancel := startSubscriber(t, client)
	defer cancel()

	err := NewPublisher(client).PublishChange(context.Background(), &ChangeMessage{
		UserID:   "user-1",
		Table:    TableAnalyses,
		Event:    EventInsert,
		RecordID: "01HXYZ",
	})
	require.NoError(t, err)

	select {
	case d := <-received:
		assert.Equal(t, "user-1", d.userID)
		var msg ChangeMessage
		require.NoError(t, json.Unmarshal(d.payload, &msg))
		assert.Equal(t, TypeChange, msg.Type)
		assert.Equal(t, TableAnalyses, msg.Table)
		assert.Equal(t, EventInsert, msg.Event)
		assert.Equal(t, "01HXYZ", msg.RecordID)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for change message")
	}
}

func TestPublishProgress_AutoFill(t *testing.T) {
	client := setupRedis(t)
	received, cancel := startSubscriber(t, client)
	defer cancel()

	err := NewPublisher(client).PublishProgress(context.Background(), &ProgressMessage{
		UserID:    "user-2",
		TargetURL: "https://rival.io",
		Step:      StepGenerating,
	})
	require.NoError(t, err)

	select {
	case d := <-received:
		var msg ProgressMessage
		require.NoError(t, json.Unmarshal(d.payload, &msg))
		assert.Equal(t, "user-2", d.userID)
		assert.Equal(t, TypeProgress, msg.Type)
		assert.Equal(t, 50, msg.Progress)
		assert.Equal(t, StepMessages[StepGenerating], msg.Message)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for progress message")
	}
}

func TestSubscribe_DropsMessagesWithoutUser(t *testing.T) {
	client := setupRedis(t)
	received, cancel := startSubscriber(t, client)
	defer cancel()

	ctx := context.Background()
	require.NoError(t, client.Publish(ctx, ChannelAnalysesChanges, "not json").Err())
	require.NoError(t, client.Publish(ctx, ChannelAnalysesChanges, `{"table":"analyses"}`).Err())
	require.NoError(t, NewPublisher(client).PublishChange(ctx, &ChangeMessage{UserID: "u3", Table: TableProfiles, Event: EventUpdate}))

	select {
	case d := <-received:
		assert.Equal(t, "u3", d.userID)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for valid message")
	}
}

func TestProgressMessage_OmitEmpty(t *testing.T) {
	data, err := json.Marshal(&ProgressMessage{UserID: "u1", Step: StepDone})
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "message")
	assert.NotContains(t, raw, "error")
	assert.Contains(t, raw, "user_id")
}
