package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestInMemoryDispatcher_HandlerErrorDoesNotStopOthers(t *testing.T) {
	t.Parallel()
	d := NewInMemoryDispatcher(nil)

	var calls []string
	d.Subscribe(EventTargetDeleted, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("mail service down")
	})
	d.Subscribe(EventTargetDeleted, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventTargetCreated, func(context.Context, Event) error {
		calls = append(calls, "other type")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTargetDeleted}))
	require.Equal(t, []string{"first", "second"}, calls)
}

func TestInMemoryDispatcher_StampsAndSurvivesPanics(t *testing.T) {
	t.Parallel()
	d := NewInMemoryDispatcher(nil)

	var seen []Event
	d.Subscribe(EventTargetUpdated, func(context.Context, Event) error {
		panic("nil payload")
	})
	d.Subscribe(EventTargetUpdated, func(_ context.Context, e Event) error {
		seen = append(seen, e)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTargetUpdated, TargetID: "t-1"}))
	require.Len(t, seen, 1)
	require.NotEmpty(t, seen[0].ID)
	require.False(t, seen[0].Timestamp.IsZero())

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, d.Publish(context.Background(), Event{ID: "fixed", Type: EventTargetUpdated, Timestamp: at}))
	require.Equal(t, "fixed", seen[1].ID)
	require.Equal(t, at, seen[1].Timestamp)
}

type publishCall struct {
	channel     string
	message     any
	// ctxErr and deadline are read at call time; the publisher cancels its
	// context on return.
	ctxErr      error
	deadline    time.Time
	hasDeadline bool
}

type fakeRedis struct {
	redis.UniversalClient
	calls []publishCall
	err   error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	deadline, hasDeadline := ctx.Deadline()
	f.calls = append(f.calls, publishCall{channel: channel, message: message, ctxErr: ctx.Err(), deadline: deadline, hasDeadline: hasDeadline})
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestRedisPublisher_ForwardsEveryEventType(t *testing.T) {
	t.Parallel()
	client := &fakeRedis{}
	d := NewInMemoryDispatcher(nil)
	NewRedisPublisher(client, "gym-targets.events").Attach(d)

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, et := range AllEventTypes {
		require.NoError(t, d.Publish(context.Background(), Event{ID: string(et), Type: et, Timestamp: at}))
	}
	require.Len(t, client.calls, len(AllEventTypes))
	require.Equal(t, "gym-targets.events", client.calls[0].channel)
}

func TestRedisPublisher_EncodesPayload(t *testing.T) {
	t.Parallel()
	client := &fakeRedis{}
	p := NewRedisPublisher(client, "events")

	err := p.Handle(context.Background(), Event{
		ID:       "evt-1",
		Type:     EventTargetCreated,
		TargetID: "target-1",
		ActorID:  "admin-1",
		Payload:  TargetCreatedPayload{BranchID: "branch-1", TargetValue: decimal.RequireFromString("1500.50"), DepartmentTargetsCreated: 2},
	})
	require.NoError(t, err)
	require.Len(t, client.calls, 1)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(client.calls[0].message.([]byte), &decoded))
	require.Equal(t, "target.created", decoded["type"])
	require.Equal(t, "target-1", decoded["targetId"])
	payload := decoded["payload"].(map[string]any)
	require.Equal(t, "branch-1", payload["branchId"])
	require.Equal(t, "1500.5", payload["targetValue"])
}

func TestRedisPublisher_ReturnsPublishError(t *testing.T) {
	t.Parallel()
	p := NewRedisPublisher(&fakeRedis{err: errors.New("connection refused")}, "events")

	err := p.Handle(context.Background(), Event{ID: "evt-2", Type: EventTargetDeleted})
	require.ErrorContains(t, err, "publish event evt-2")
}

func TestRedisPublisher_OutlivesCanceledRequest(t *testing.T) {
	t.Parallel()
	client := &fakeRedis{}
	p := NewRedisPublisher(client, "events")

	reqCtx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.Handle(reqCtx, Event{ID: "evt-3", Type: EventTargetStatusChanged}))

	require.Len(t, client.calls, 1)
	call := client.calls[0]
	require.NoError(t, call.ctxErr)
	require.True(t, call.hasDeadline)
	require.WithinDuration(t, time.Now().Add(DefaultPublishTimeout), call.deadline, DefaultPublishTimeout)
}
