// Package redisstore implements store.Store on Redis so that route state can
// be shared with processes outside the router, and so that other processes
// can drive navigation by writing ui.route.go.
//
// Values are stored as JSON under prefix+path. Every Set also publishes a
// change event on prefix+"events"; subscriptions are served from a single
// pub/sub receive loop per Store. Because values round-trip through JSON,
// subscribers and Get see decoded values: objects become map[string]any and
// numbers become float64.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "routestate:"

// Store is a Redis-backed store.Store.
type Store struct {
	client  *backend.Client
	prefix  string
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	subs   map[string][]subscriber
	nextID uint64
	pubsub *backend.PubSub
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

type subscriber struct {
	id uint64
	fn func(any)
}

// event is the payload published on the events channel.
type event struct {
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix (default "routestate:").
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithTimeout bounds each Redis call made through the Store interface.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

// WithLogger sets the logger used for Redis failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a store that connects to a Redis server.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client:  client,
		prefix:  defaultPrefix,
		timeout: 2 * time.Second,
		logger:  slog.Default().With("component", "redisstore"),
		subs:    make(map[string][]subscriber),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(path string) string {
	return s.prefix + path
}

func (s *Store) channel() string {
	return s.prefix + "events"
}

// Get implements store.Store. Failures are logged and reported as nil.
func (s *Store) Get(path string) any {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	v, err := s.GetContext(ctx, path)
	if err != nil {
		s.logger.Error("redis get failed", "path", path, "error", err)
		return nil
	}
	return v
}

// GetContext returns the decoded value at path, or nil if unset.
func (s *Store) GetContext(ctx context.Context, path string) (any, error) {
	raw, err := s.client.Get(ctx, s.key(path)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return v, nil
}

// Set implements store.Store. Failures are logged.
func (s *Store) Set(path string, value any) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.SetContext(ctx, path, value); err != nil {
		s.logger.Error("redis set failed", "path", path, "error", err)
	}
}

// SetContext stores value at path and publishes a change event. A nil value
// deletes the key.
func (s *Store) SetContext(ctx context.Context, path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	msg, err := json.Marshal(event{Path: path, Value: data})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	pipe := s.client.TxPipeline()
	if value == nil {
		pipe.Del(ctx, s.key(path))
	} else {
		pipe.Set(ctx, s.key(path), data, 0)
	}
	pipe.Publish(ctx, s.channel(), msg)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Subscribe implements store.Store. Notifications are delivered on the
// store's receive goroutine, in publish order. If the pub/sub subscription
// cannot be established the error is logged and fn is never called.
func (s *Store) Subscribe(path string, fn func(value any)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.listenLocked(); err != nil {
		s.logger.Error("redis subscribe failed", "path", path, "error", err)
		return func() {}
	}

	s.nextID++
	id := s.nextID
	s.subs[path] = append(s.subs[path], subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			subs := s.subs[path]
			for i, sub := range subs {
				if sub.id == id {
					s.subs[path] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
			if len(s.subs[path]) == 0 {
				delete(s.subs, path)
			}
		})
	}
}

// listenLocked starts the receive loop once. s.mu must be held.
func (s *Store) listenLocked() error {
	if s.closed {
		return errors.New("store closed")
	}
	if s.pubsub != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	ps := s.client.Subscribe(ctx, s.channel())

	confirmCtx, confirmCancel := context.WithTimeout(ctx, s.timeout)
	defer confirmCancel()
	if _, err := ps.Receive(confirmCtx); err != nil {
		cancel()
		_ = ps.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", s.channel(), err)
	}

	s.pubsub = ps
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.receive(ctx, ps.Channel(), s.done)
	return nil
}

func (s *Store) receive(ctx context.Context, ch <-chan *backend.Message, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.dispatch(msg.Payload)
		}
	}
}

func (s *Store) dispatch(payload string) {
	var ev event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		s.logger.Warn("dropping malformed change event", "error", err)
		return
	}

	var value any
	if len(ev.Value) > 0 {
		if err := json.Unmarshal(ev.Value, &value); err != nil {
			s.logger.Warn("dropping change event with malformed value", "path", ev.Path, "error", err)
			return
		}
	}

	s.mu.Lock()
	subs := make([]subscriber, len(s.subs[ev.Path]))
	copy(subs, s.subs[ev.Path])
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(value)
	}
}

// Close stops the receive loop. The Redis client is not closed.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ps, cancel, done := s.pubsub, s.cancel, s.done
	s.mu.Unlock()

	if ps == nil {
		return nil
	}
	cancel()
	err := ps.Close()
	<-done
	return err
}
