//go:build integration
// +build integration

package test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/MrEthical07/jwtdata/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const testPrefix = "jd"

func newIntegrationStore(t *testing.T) (*session.Store, *redis.Client, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := session.NewStore(rdb, testPrefix)

	return store, rdb, mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func makeSession(tenantID, userID, handle, payload string) *session.Session {
	now := time.Now()

	var raw json.RawMessage
	if payload != "" {
		raw = json.RawMessage(payload)
	}
	return &session.Session{
		Handle:    handle,
		UserID:    userID,
		TenantID:  tenantID,
		Payload:   raw,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(time.Hour).Unix(),
	}
}
