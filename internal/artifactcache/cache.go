// Package artifactcache keeps rendered boards and storyboards in Redis so
// repeated renders of the same position skip the SVG and scene work.
package artifactcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "fenscene"
	DefaultTTL = 24 * time.Hour
)

var ErrCorruptEntry = errors.New("corrupt cache entry")

// Entry is what one render of (scene, fen, variant) produces.
type Entry struct {
	SVG        []byte    `json:"svg"`
	EmptySVG   []byte    `json:"empty_svg"`
	Storyboard []byte    `json:"storyboard"`
	Format     string    `json:"format"`
	StoredAt   time.Time `json:"stored_at"`
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Open connects to redisURL and pings it.
func Open(ctx context.Context, redisURL string, ttl time.Duration) (*Store, error) {
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewStore(rdb, ttl), nil
}

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// Key is fenscene:<scene>:<sha256 of the fen and variant>. The variant holds
// whatever else the storyboard depends on (font, text, format).
func Key(scene, fen, variant string) string {
	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(fen)))
	h.Write([]byte{0})
	h.Write([]byte(variant))
	return keyPrefix + ":" + strings.TrimSpace(scene) + ":" + hex.EncodeToString(h.Sum(nil))
}

// Get returns nil, nil on a miss.
func (s *Store) Get(ctx context.Context, scene, fen, variant string) (*Entry, error) {
	raw, err := s.rdb.Get(ctx, Key(scene, fen, variant)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	return &e, nil
}

func (s *Store) Put(ctx context.Context, scene, fen, variant string, e *Entry) error {
	if e == nil {
		return nil
	}
	if e.StoredAt.IsZero() {
		e.StoredAt = time.Now().UTC()
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, Key(scene, fen, variant), raw, s.ttl).Err()
}

func (s *Store) Delete(ctx context.Context, scene, fen, variant string) error {
	return s.rdb.Del(ctx, Key(scene, fen, variant)).Err()
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
