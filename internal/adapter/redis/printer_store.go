package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

// NewClient creates a Redis client from a URL (e.g., "redis://localhost:6379/0").
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// printerStore keeps one hash per owner: field = printer id, value = JSON.
type printerStore struct {
	rdb *redis.Client
}

func NewPrinterStore(rdb *redis.Client) interfaces.PrinterStore {
	return &printerStore{rdb: rdb}
}

func printersKey(ownerID uuid.UUID) string {
	return "printers:" + ownerID.String()
}

func (s *printerStore) List(ctx context.Context, ownerID uuid.UUID) ([]domain.PrinterConfig, error) {
	raw, err := s.rdb.HGetAll(ctx, printersKey(ownerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list printers: %w", err)
	}

	configs := make([]domain.PrinterConfig, 0, len(raw))
	for _, v := range raw {
		var cfg domain.PrinterConfig
		if err := json.Unmarshal([]byte(v), &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode printer config: %w", err)
		}
		configs = append(configs, cfg)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	return configs, nil
}

func (s *printerStore) Get(ctx context.Context, ownerID uuid.UUID, id string) (*domain.PrinterConfig, error) {
	v, err := s.rdb.HGet(ctx, printersKey(ownerID), id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("printer %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get printer: %w", err)
	}

	var cfg domain.PrinterConfig
	if err := json.Unmarshal([]byte(v), &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode printer config: %w", err)
	}
	return &cfg, nil
}

// Save stores cfg. A default printer clears the flag on the owner's others.
func (s *printerStore) Save(ctx context.Context, ownerID uuid.UUID, cfg domain.PrinterConfig) error {
	key := printersKey(ownerID)

	values := map[string]any{}
	if cfg.IsDefault {
		existing, err := s.List(ctx, ownerID)
		if err != nil {
			return err
		}
		for _, other := range existing {
			if other.ID == cfg.ID || !other.IsDefault {
				continue
			}
			other.IsDefault = false
			data, err := json.Marshal(other)
			if err != nil {
				return fmt.Errorf("failed to encode printer config: %w", err)
			}
			values[other.ID] = data
		}
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode printer config: %w", err)
	}
	values[cfg.ID] = data

	if err := s.rdb.HSet(ctx, key, values).Err(); err != nil {
		return fmt.Errorf("failed to save printer config: %w", err)
	}
	return nil
}

func (s *printerStore) Delete(ctx context.Context, ownerID uuid.UUID, id string) error {
	n, err := s.rdb.HDel(ctx, printersKey(ownerID), id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete printer config: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("printer %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
