package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/keyxmakerx/eventhub/internal/config"
)

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(config.RedisConfig{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer client.Close()

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := mr.Get("k"); got != "v" {
		t.Errorf("got %q", got)
	}
}

func TestNewRedis_Errors(t *testing.T) {
	if _, err := NewRedis(config.RedisConfig{}); err == nil {
		t.Error("expected an error for an empty URL")
	}
	if _, err := NewRedis(config.RedisConfig{URL: "not a url"}); err == nil {
		t.Error("expected an error for a bad URL")
	}
}
