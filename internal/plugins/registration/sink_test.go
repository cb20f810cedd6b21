package registration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisSink(t *testing.T) {
	mr, client := newTestRedis(t)
	sink := NewRedisSink(client, "")

	at := time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"a", "b"} {
		if err := sink.Registered(context.Background(), Registration{EventID: id, Owner: "u1", At: at}); err != nil {
			t.Fatalf("Registered: %v", err)
		}
	}

	items, err := mr.List(DefaultRegistrationsKey)
	if err != nil {
		t.Fatalf("reading list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	var got Registration
	if err := json.Unmarshal([]byte(items[0]), &got); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if got.EventID != "a" || got.Owner != "u1" || !got.At.Equal(at) {
		t.Errorf("unexpected record %+v", got)
	}
}

func TestRedisSink_FlowIntegration(t *testing.T) {
	mr, client := newTestRedis(t)
	f := NewFlow(testEvent(), Owner{UserID: "u1"}, NewRedisSink(client, "regs"))

	f.Register(context.Background())
	f.Register(context.Background())
	f.SetReminder()

	items, _ := mr.List("regs")
	if len(items) != 1 {
		t.Errorf("expected exactly one pushed registration, got %d", len(items))
	}
}

func TestRedisSink_Unavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.Close()

	sink := NewRedisSink(client, "")
	if err := sink.Registered(context.Background(), Registration{EventID: "a"}); err == nil {
		t.Error("expected an error with redis down")
	}

	// The flow still registers.
	f := NewFlow(testEvent(), Owner{}, sink)
	if !f.Register(context.Background()) {
		t.Error("flow should register even when the sink fails")
	}
}

func TestRedisNotifier(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, DefaultRemindersChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	n := NewRedisNotifier(client, "")
	if err := n.Notify(ctx, Reminder{EventID: "a", Subject: "Reminder: A"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	recvCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(recvCtx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	var got Reminder
	if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if got.EventID != "a" || got.Subject != "Reminder: A" {
		t.Errorf("unexpected reminder %+v", got)
	}
}

func TestSinkFunc(t *testing.T) {
	var called bool
	s := SinkFunc(func(ctx context.Context, reg Registration) error {
		called = reg.EventID == "x"
		return nil
	})
	_ = s.Registered(context.Background(), Registration{EventID: "x"})
	if !called {
		t.Error("SinkFunc did not forward")
	}
	if err := (LogSink{}).Registered(context.Background(), Registration{EventID: "x"}); err != nil {
		t.Errorf("LogSink: %v", err)
	}
}
