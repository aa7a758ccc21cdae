package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every failure of the backing Redis deployment.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrSessionNotFound is returned when no session exists for a handle.
var ErrSessionNotFound = errors.New("session does not exist")

// ErrSessionExpired is returned when the session exists but is past its expiry.
var ErrSessionExpired = errors.New("session expired")

// ErrSessionCorrupt is returned when a stored session blob cannot be decoded.
var ErrSessionCorrupt = errors.New("session record corrupt")

const (
	replaceStatusNotFound int64 = 0
	replaceStatusExpired  int64 = 1
	replaceStatusReplaced int64 = 2
	replaceStatusCorrupt  int64 = 3
)

const replacePayloadScript = `
local function read_be64(s, i)
  local b1 = string.byte(s, i)
  local b2 = string.byte(s, i + 1)
  local b3 = string.byte(s, i + 2)
  local b4 = string.byte(s, i + 3)
  local b5 = string.byte(s, i + 4)
  local b6 = string.byte(s, i + 5)
  local b7 = string.byte(s, i + 6)
  local b8 = string.byte(s, i + 7)
  if not b8 then
    return nil
  end
  return ((((((((b1 * 256) + b2) * 256 + b3) * 256 + b4) * 256 + b5) * 256 + b6) * 256 + b7) * 256 + b8)
end

local session_key = KEYS[1]
local next_section = ARGV[1]
local now_unix = tonumber(ARGV[2])

local data = redis.call("GET", session_key)
if not data then
  return {0}
end

if string.byte(data, 1) ~= 1 then
  return {3}
end

local idx = 2
local user_len = string.byte(data, idx)
if not user_len then
  return {3}
end
idx = idx + 1 + user_len

local tenant_len = string.byte(data, idx)
if not tenant_len then
  return {3}
end
idx = idx + 1 + tenant_len

if #data < idx + 19 then
  return {3}
end

local expires_at = read_be64(data, idx + 8)
if not expires_at then
  return {3}
end
if expires_at <= now_unix then
  return {1}
end

local updated = string.sub(data, 1, idx + 15) .. next_section

local ttl = redis.call("PTTL", session_key)
if ttl > 0 then
  redis.call("SET", session_key, updated, "PX", ttl)
elseif ttl == -1 then
  redis.call("SET", session_key, updated)
else
  return {0}
end

return {2}
`

var replacePayloadLua = redis.NewScript(replacePayloadScript)

// Store is a Redis-backed session store. Payload replacement is a single
// Lua round-trip, so concurrent writers to one handle never interleave.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix sets the Redis key namespace.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	return &Store{
		redis:  client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *Store) key(tenantID, handle string) string {
	return s.prefix + ":" + normalizeTenantID(tenantID) + ":" + handle
}

func normalizeTenantID(tenantID string) string {
	if tenantID == "" {
		return "0"
	}
	return tenantID
}

// Save persists a [Session] with the given TTL. It is used by the session
// lifecycle component and by tests; the payload path never creates sessions.
func (s *Store) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(sess.TenantID, sess.Handle), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, tenantID, handle string) error {
	if err := s.redis.Del(ctx, s.key(tenantID, handle)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Lookup fetches a session without mutating TTL or any other Redis state.
//
// A missing session yields an error matching both redis.Nil and
// [ErrSessionNotFound]; an expired one matches redis.Nil and [ErrSessionExpired].
//
//	Performance: 1 Redis GET.
func (s *Store) Lookup(ctx context.Context, tenantID, handle string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(tenantID, handle)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.Join(redis.Nil, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, errors.Join(ErrRedisUnavailable, ErrSessionCorrupt, err)
	}
	sess.Handle = handle

	if sess.ExpiredAt(s.now().Unix()) {
		return nil, errors.Join(redis.Nil, ErrSessionExpired)
	}

	return sess, nil
}

// ReplacePayload atomically swaps the stored payload of a live session for
// payload. Expiry, remaining TTL, and every other field are preserved.
//
//	Performance: 1 Lua EVALSHA (check + replace under one script).
func (s *Store) ReplacePayload(ctx context.Context, tenantID, handle string, payload []byte) error {
	section, err := EncodePayloadSection(payload)
	if err != nil {
		return err
	}

	result, err := replacePayloadLua.Run(
		ctx,
		s.redis,
		[]string{s.key(tenantID, handle)},
		section,
		s.now().Unix(),
	).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return fmt.Errorf("%w: invalid replace script response", ErrRedisUnavailable)
	}
	code, ok := parts[0].(int64)
	if !ok {
		return fmt.Errorf("%w: invalid replace script status", ErrRedisUnavailable)
	}

	switch code {
	case replaceStatusReplaced:
		return nil
	case replaceStatusNotFound:
		return errors.Join(redis.Nil, ErrSessionNotFound)
	case replaceStatusExpired:
		return errors.Join(redis.Nil, ErrSessionExpired)
	case replaceStatusCorrupt:
		return errors.Join(ErrRedisUnavailable, ErrSessionCorrupt)
	default:
		return fmt.Errorf("%w: unknown replace script status", ErrRedisUnavailable)
	}
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
