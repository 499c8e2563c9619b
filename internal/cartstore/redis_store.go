package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	d "github.com/farmeazy/farmgate/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisStore persists the cart in redis, for kiosk deployments where several
// agent processes on one device share the cart. Same contract as FileStore:
// absent or corrupt payloads read as an empty cart.
type RedisStore struct {
	client *redis.Client
	device string
	bus    *Bus
}

func NewRedisStore(client *redis.Client, deviceID string, bus *Bus) *RedisStore {
	return &RedisStore{client: client, device: deviceID, bus: bus}
}

func (r *RedisStore) cartKey() string {
	return fmt.Sprintf("cart:%s", r.device)
}

func (r *RedisStore) selectionKey() string {
	return fmt.Sprintf("cart:%s:coin-selection", r.device)
}

func (r *RedisStore) Load(ctx context.Context) ([]d.CartLine, error) {
	data, err := r.client.Get(ctx, r.cartKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return []d.CartLine{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var lines []d.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		log.Printf("cart store: corrupt cart payload in redis, treating as empty: %v", err)
		return []d.CartLine{}, nil
	}
	if lines == nil {
		lines = []d.CartLine{}
	}
	return lines, nil
}

func (r *RedisStore) Save(ctx context.Context, lines []d.CartLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := r.client.Set(ctx, r.cartKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	if r.bus != nil {
		r.bus.Publish(Event{Type: EventSaved, LineCount: len(lines)})
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.cartKey()).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	if r.bus != nil {
		r.bus.Publish(Event{Type: EventCleared})
	}
	return nil
}

func (r *RedisStore) SaveCoinSelection(ctx context.Context, sel d.CoinSelection) error {
	data, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("marshal coin selection failed: %w", err)
	}
	if err := r.client.Set(ctx, r.selectionKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) LoadCoinSelection(ctx context.Context) (d.CoinSelection, error) {
	var sel d.CoinSelection
	data, err := r.client.Get(ctx, r.selectionKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return sel, nil
	}
	if err != nil {
		return sel, fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(data, &sel); err != nil {
		log.Printf("cart store: corrupt coin selection in redis, treating as unset: %v", err)
		return d.CoinSelection{}, nil
	}
	return sel, nil
}
