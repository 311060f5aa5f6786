package stores

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const resetRecordVersionV1 = 1

var (
	ErrResetNotFound         = errors.New("reset record not found")
	ErrResetExpired          = errors.New("reset record expired")
	ErrResetSecretMismatch   = errors.New("reset secret mismatch")
	ErrResetAttemptsExceeded = errors.New("reset attempts exceeded")
	ErrResetRedisUnavailable = errors.New("reset redis unavailable")
)

// ResetKind distinguishes the two challenge shapes issued per request.
type ResetKind uint8

const (
	ResetKindOTP   ResetKind = 1
	ResetKindToken ResetKind = 2
)

// PasswordResetRecord is one outstanding challenge. Sibling names the key of
// the other challenge issued by the same request.
type PasswordResetRecord struct {
	UserID     string
	Kind       ResetKind
	SecretHash [32]byte
	ExpiresAt  int64
	Attempts   uint16
	Sibling    string
}

type PasswordResetStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewPasswordResetStore(redisClient redis.UniversalClient, prefix string) *PasswordResetStore {
	if prefix == "" {
		prefix = "afr"
	}
	return &PasswordResetStore{
		redis:  redisClient,
		prefix: prefix,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for expiry checks.
func (s *PasswordResetStore) WithClock(now func() time.Time) *PasswordResetStore {
	if now != nil {
		s.now = now
	}
	return s
}

// OTPKey addresses the code challenge for an email. The email is normalized
// and hashed so addresses never appear in key names.
func (s *PasswordResetStore) OTPKey(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return s.prefix + ":otp:" + hex.EncodeToString(sum[:16])
}

// TokenKey addresses the link challenge for a reset ID.
func (s *PasswordResetStore) TokenKey(resetID string) string {
	return s.prefix + ":tok:" + resetID
}

// Save writes record under key with ttl, replacing any previous challenge.
func (s *PasswordResetStore) Save(ctx context.Context, key string, record *PasswordResetRecord, ttl time.Duration) error {
	encoded, err := encodePasswordResetRecord(record)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, key, encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrResetRedisUnavailable, err)
	}
	return nil
}

// Get returns the live record under key without consuming it.
func (s *PasswordResetStore) Get(ctx context.Context, key string) (*PasswordResetRecord, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrResetNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrResetRedisUnavailable, err)
	}
	record, err := decodePasswordResetRecord(data)
	if err != nil {
		return nil, err
	}
	if s.now().Unix() > record.ExpiresAt {
		return nil, ErrResetExpired
	}
	return record, nil
}

// Delete removes challenges. Missing keys are not an error.
func (s *PasswordResetStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrResetRedisUnavailable, err)
	}
	return nil
}

// Consume verifies providedHash against the record under key. A match deletes
// the record and its sibling and returns it. A mismatch increments the attempt
// counter and deletes the record once maxAttempts is reached.
func (s *PasswordResetStore) Consume(ctx context.Context, key string, providedHash [32]byte, maxAttempts int) (*PasswordResetRecord, error) {
	const maxRetries = 4

	for i := 0; i < maxRetries; i++ {
		var matched *PasswordResetRecord

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return ErrResetNotFound
				}
				return err
			}

			record, err := decodePasswordResetRecord(data)
			if err != nil {
				return err
			}

			now := s.now()
			if now.Unix() > record.ExpiresAt {
				if err := deleteInTx(ctx, tx, key, record.Sibling); err != nil {
					return err
				}
				return ErrResetExpired
			}

			if subtle.ConstantTimeCompare(record.SecretHash[:], providedHash[:]) != 1 {
				record.Attempts++
				if maxAttempts > 0 && int(record.Attempts) >= maxAttempts {
					if err := deleteInTx(ctx, tx, key, record.Sibling); err != nil {
						return err
					}
					return ErrResetAttemptsExceeded
				}

				ttl := time.Unix(record.ExpiresAt, 0).Sub(now)
				if ttl <= 0 {
					ttl = time.Second
				}
				updated, err := encodePasswordResetRecord(record)
				if err != nil {
					return err
				}
				if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, updated, ttl)
					return nil
				}); err != nil {
					return err
				}
				return ErrResetSecretMismatch
			}

			if err := deleteInTx(ctx, tx, key, record.Sibling); err != nil {
				return err
			}
			matched = record
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, ErrResetNotFound),
				errors.Is(err, ErrResetExpired),
				errors.Is(err, ErrResetSecretMismatch),
				errors.Is(err, ErrResetAttemptsExceeded):
				return nil, err
			default:
				return nil, fmt.Errorf("%w: %v", ErrResetRedisUnavailable, err)
			}
		}
		return matched, nil
	}

	return nil, fmt.Errorf("%w: contention retries exhausted", ErrResetRedisUnavailable)
}

func deleteInTx(ctx context.Context, tx *redis.Tx, key, sibling string) error {
	_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if sibling != "" {
			pipe.Del(ctx, sibling)
		}
		return nil
	})
	return err
}

func encodePasswordResetRecord(record *PasswordResetRecord) ([]byte, error) {
	if record == nil {
		return nil, errors.New("nil reset record")
	}
	if len(record.UserID) > 0xFFFF || len(record.Sibling) > 0xFFFF {
		return nil, errors.New("reset record field too long")
	}

	var buf bytes.Buffer
	buf.WriteByte(resetRecordVersionV1)
	buf.WriteByte(byte(record.Kind))
	_ = binary.Write(&buf, binary.BigEndian, record.Attempts)
	_ = binary.Write(&buf, binary.BigEndian, record.ExpiresAt)
	writeString(&buf, record.UserID)
	writeString(&buf, record.Sibling)
	buf.Write(record.SecretHash[:])
	return buf.Bytes(), nil
}

func decodePasswordResetRecord(data []byte) (*PasswordResetRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != resetRecordVersionV1 {
		return nil, errors.New("invalid reset record version")
	}
	kind, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	record := &PasswordResetRecord{Kind: ResetKind(kind)}
	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}
	if record.UserID, err = readString(reader); err != nil {
		return nil, err
	}
	if record.Sibling, err = readString(reader); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, record.SecretHash[:]); err != nil {
		return nil, err
	}
	return record, nil
}

func writeString(buf *bytes.Buffer, s string) {
	_ = binary.Write(buf, binary.BigEndian, uint16(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return "", err
	}
	return string(out), nil
}
