package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Client provides instance-scoped Redis storage and event transport for boards.
// All keys and channels are automatically namespaced with the instance name.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb          *redis.Client
	instanceName string
	logger       Logger
}

// NewClient creates a new board client for the specified instance.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - instanceName: corkboard instance identifier (must not be empty)
//
// Returns an error if instanceName is empty.
func NewClient(redisOpts *redis.Options, instanceName string) (*Client, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	return &Client{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
		logger:       log.Default(),
	}, nil
}

// SetLogger replaces the logger used for normalization warnings on load.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// SaveBoard writes a board hash, replacing any previous version.
// The board must satisfy Validate.
func (c *Client) SaveBoard(ctx context.Context, b *Board) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("invalid board: %w", err)
	}

	hash, err := BoardToHash(b)
	if err != nil {
		return fmt.Errorf("failed to serialize board: %w", err)
	}

	if err := c.rdb.HSet(ctx, BoardKey(c.instanceName, b.ID), hash).Err(); err != nil {
		return fmt.Errorf("failed to write board to Redis: %w", err)
	}
	return nil
}

// GetBoard loads and normalizes a board.
// Returns (nil, redis.Nil) if the board doesn't exist.
func (c *Client) GetBoard(ctx context.Context, boardID string) (*Board, error) {
	hashData, err := c.rdb.HGetAll(ctx, BoardKey(c.instanceName, boardID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read board from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	b, err := HashToBoard(hashData, c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize board: %w", err)
	}
	return b, nil
}

// BoardExists checks if a board exists without fetching it.
func (c *Client) BoardExists(ctx context.Context, boardID string) (bool, error) {
	exists, err := c.rdb.Exists(ctx, BoardKey(c.instanceName, boardID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check board existence: %w", err)
	}
	return exists > 0, nil
}

// ScanBoards returns the ids of all boards whose id starts with prefix.
// An empty prefix lists every board of the instance.
func (c *Client) ScanBoards(ctx context.Context, prefix string) ([]string, error) {
	keyPrefix := BoardKey(c.instanceName, "")
	var ids []string
	iter := c.rdb.Scan(ctx, 0, BoardKeyPattern(c.instanceName, prefix), 100).Iterator()
	for iter.Next(ctx) {
		id := strings.TrimPrefix(iter.Val(), keyPrefix)
		// Skip :history, :locks and other per-board keys
		if strings.Contains(id, ":") {
			continue
		}
		ids = append(ids, id)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan boards: %w", err)
	}
	return ids, nil
}

// SaveHistory replaces a board's history list.
func (c *Client) SaveHistory(ctx context.Context, boardID string, history []HistoryEntry) error {
	values, err := encodeHistory(history)
	if err != nil {
		return err
	}

	key := HistoryKey(c.instanceName, boardID)
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.RPush(ctx, key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write history to Redis: %w", err)
	}
	return nil
}

// GetHistory returns a board's history, oldest entry first. A board without
// history yields an empty slice.
func (c *Client) GetHistory(ctx context.Context, boardID string) ([]HistoryEntry, error) {
	raw, err := c.rdb.LRange(ctx, HistoryKey(c.instanceName, boardID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history from Redis: %w", err)
	}

	history := make([]HistoryEntry, len(raw))
	for i, r := range raw {
		if err := json.Unmarshal([]byte(r), &history[i]); err != nil {
			return nil, fmt.Errorf("failed to deserialize history entry %d: %w", i, err)
		}
	}
	return history, nil
}

// SaveLocks replaces a board's lock table.
func (c *Client) SaveLocks(ctx context.Context, boardID string, locks ItemLocks) error {
	key := LocksKey(c.instanceName, boardID)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(locks) > 0 {
			pipe.HSet(ctx, key, locksToHash(locks))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write locks to Redis: %w", err)
	}
	return nil
}

// GetLocks returns a board's lock table. Returns an empty table if none is stored.
func (c *Client) GetLocks(ctx context.Context, boardID string) (ItemLocks, error) {
	locks, err := c.rdb.HGetAll(ctx, LocksKey(c.instanceName, boardID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read locks from Redis: %w", err)
	}
	return ItemLocks(locks), nil
}

// SaveState writes board, history and locks in a single transaction.
func (c *Client) SaveState(ctx context.Context, state BoardWithHistory, locks ItemLocks) error {
	if err := state.Board.Validate(); err != nil {
		return fmt.Errorf("invalid board: %w", err)
	}
	hash, err := BoardToHash(state.Board)
	if err != nil {
		return fmt.Errorf("failed to serialize board: %w", err)
	}
	values, err := encodeHistory(state.History)
	if err != nil {
		return err
	}

	boardID := state.Board.ID
	historyKey := HistoryKey(c.instanceName, boardID)
	locksKey := LocksKey(c.instanceName, boardID)
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, BoardKey(c.instanceName, boardID), hash)
		pipe.Del(ctx, historyKey, locksKey)
		if len(values) > 0 {
			pipe.RPush(ctx, historyKey, values...)
		}
		if len(locks) > 0 {
			pipe.HSet(ctx, locksKey, locksToHash(locks))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write board state to Redis: %w", err)
	}
	return nil
}

// LoadState reads a board with its history and locks.
// Returns redis.Nil if the board doesn't exist.
func (c *Client) LoadState(ctx context.Context, boardID string) (BoardWithHistory, ItemLocks, error) {
	b, err := c.GetBoard(ctx, boardID)
	if err != nil {
		return BoardWithHistory{}, nil, err
	}
	history, err := c.GetHistory(ctx, boardID)
	if err != nil {
		return BoardWithHistory{}, nil, err
	}
	locks, err := c.GetLocks(ctx, boardID)
	if err != nil {
		return BoardWithHistory{}, nil, err
	}
	return BoardWithHistory{Board: b, History: history}, locks, nil
}

func locksToHash(locks ItemLocks) map[string]interface{} {
	hash := make(map[string]interface{}, len(locks))
	for itemID, userID := range locks {
		hash[itemID] = userID
	}
	return hash
}

func encodeHistory(history []HistoryEntry) ([]interface{}, error) {
	values := make([]interface{}, len(history))
	for i, h := range history {
		data, err := json.Marshal(h)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize history entry %d: %w", i, err)
		}
		values[i] = string(data)
	}
	return values, nil
}

// PublishEvent validates an event and publishes it on its board's channel.
func (c *Client) PublishEvent(ctx context.Context, e Event) error {
	if err := Validate(e); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}
	if e.Board() == "" {
		return fmt.Errorf("invalid event: board id cannot be empty")
	}

	data, err := MarshalEvent(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := c.rdb.Publish(ctx, BoardEventsChannel(c.instanceName, e.Board()), data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscription represents an active Pub/Sub subscription to a board's events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of board events, in the order Redis delivered them.
// The channel is closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Errors returns the channel of subscription errors. Malformed messages are
// reported here and skipped; the subscription keeps running.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeEvents subscribes to a board's event channel. The subscription is
// confirmed before SubscribeEvents returns, so events published afterwards
// are delivered.
//
// Events are delivered on a buffered channel (size 64). Redis Pub/Sub is
// at-most-once: a subscriber that falls too far behind may lose events.
func (c *Client) SubscribeEvents(ctx context.Context, boardID string) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, BoardEventsChannel(c.instanceName, boardID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to board events: %w", err)
	}

	eventsChan := make(chan Event, 64)
	errorsChan := make(chan error, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				e, err := UnmarshalEvent([]byte(msg.Payload))
				if err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal board event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- e:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
