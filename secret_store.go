package authservice

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const secretRecordVersionV1 = 1

var (
	errSecretNotFound         = errors.New("secret entry not found")
	errSecretRedisUnavailable = errors.New("secret store redis unavailable")
)

// takeSecretLua atomically performs GET -> expiry check -> DEL on a secret
// entry, so that N concurrent takers of the same key see the subject exactly
// once.
//
// KEYS[1] = entry key
// ARGV[1] = current unix timestamp (int string)
//
// Returns record bytes on success, or error string "not_found" / "expired".
// The expiry check is deliberately redundant with the Redis TTL: an entry
// that outlived its expiresAt but has not been purged yet must never be
// returned.
var takeSecretLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return {err='not_found'}
end

local nowUnix = tonumber(ARGV[1])

-- Minimal binary decode: version(1) expiresAt(8 big-endian) ...
local version = string.byte(data, 1)
if version ~= 1 then
  redis.call('DEL', KEYS[1])
  return {err='not_found'}
end

local e0,e1,e2,e3,e4,e5,e6,e7 = string.byte(data, 2, 9)
local expiresAt = e0
for _, b in ipairs({e1,e2,e3,e4,e5,e6,e7}) do
  expiresAt = expiresAt * 256 + b
end

if nowUnix >= expiresAt then
  redis.call('DEL', KEYS[1])
  return {err='expired'}
end

redis.call('DEL', KEYS[1])
return data
`)

type secretRecord struct {
	Subject   string
	ExpiresAt int64
}

// secretStore persists single-use secret entries in Redis, keyed by
// (tenant, secret). Put overwrites: a new request for the same key
// supersedes the previous entry. Take consumes: the entry is deleted in the
// same round-trip that reads it.
type secretStore struct {
	redis  redis.UniversalClient
	prefix string
}

func newSecretStore(redisClient redis.UniversalClient, prefix string) *secretStore {
	return &secretStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *secretStore) key(tenantID, secret string) string {
	return s.prefix + ":" + normalizeTenantID(tenantID) + ":" + secret
}

// Put creates (or supersedes) the entry for (tenantID, secret). The backend
// TTL matches lifetime, so expiry holds even if the entry is never read.
func (s *secretStore) Put(ctx context.Context, tenantID, secret, subject string, lifetime time.Duration) error {
	record := &secretRecord{
		Subject:   subject,
		ExpiresAt: time.Now().Add(lifetime).Unix(),
	}

	encoded, err := encodeSecretRecord(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(tenantID, secret), encoded, lifetime).Err(); err != nil {
		return fmt.Errorf("%w: %v", errSecretRedisUnavailable, err)
	}

	return nil
}

// Take atomically looks up and deletes the entry for (tenantID, secret),
// returning the stored subject. Absent, already-consumed, and expired
// entries are indistinguishable: all return errSecretNotFound.
func (s *secretStore) Take(ctx context.Context, tenantID, secret string) (string, error) {
	result, err := takeSecretLua.Run(ctx, s.redis,
		[]string{s.key(tenantID, secret)},
		time.Now().Unix(),
	).Result()

	if err != nil {
		switch err.Error() {
		case "not_found", "expired":
			return "", errSecretNotFound
		}
		if errors.Is(err, redis.Nil) {
			return "", errSecretNotFound
		}
		return "", fmt.Errorf("%w: %v", errSecretRedisUnavailable, err)
	}

	data, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("%w: unexpected lua result type", errSecretRedisUnavailable)
	}

	record, decErr := decodeSecretRecord([]byte(data))
	if decErr != nil {
		return "", fmt.Errorf("%w: %v", errSecretRedisUnavailable, decErr)
	}

	return record.Subject, nil
}

func normalizeTenantID(tenantID string) string {
	if tenantID == "" {
		return "0"
	}
	return tenantID
}

func encodeSecretRecord(record *secretRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(secretRecordVersionV1)

	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	if len(record.Subject) > 65535 {
		return nil, errors.New("secret record subject too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.Subject))); err != nil {
		return nil, err
	}
	buf.WriteString(record.Subject)

	return buf.Bytes(), nil
}

func decodeSecretRecord(data []byte) (*secretRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != secretRecordVersionV1 {
		return nil, errors.New("invalid secret record version")
	}

	record := &secretRecord{}

	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	var subjectLen uint16
	if err := binary.Read(reader, binary.BigEndian, &subjectLen); err != nil {
		return nil, err
	}

	subject := make([]byte, subjectLen)
	if _, err := io.ReadFull(reader, subject); err != nil {
		return nil, err
	}
	record.Subject = string(subject)

	return record, nil
}
