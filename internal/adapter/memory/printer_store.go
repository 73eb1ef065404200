package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

// printerStore is the fallback used when Redis is not configured.
type printerStore struct {
	mu       sync.RWMutex
	printers map[uuid.UUID]map[string]domain.PrinterConfig
}

func NewPrinterStore() interfaces.PrinterStore {
	return &printerStore{printers: make(map[uuid.UUID]map[string]domain.PrinterConfig)}
}

func (s *printerStore) List(ctx context.Context, ownerID uuid.UUID) ([]domain.PrinterConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	configs := make([]domain.PrinterConfig, 0, len(s.printers[ownerID]))
	for _, cfg := range s.printers[ownerID] {
		configs = append(configs, cfg)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	return configs, nil
}

func (s *printerStore) Get(ctx context.Context, ownerID uuid.UUID, id string) (*domain.PrinterConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.printers[ownerID][id]
	if !ok {
		return nil, fmt.Errorf("printer %s: %w", id, domain.ErrNotFound)
	}
	return &cfg, nil
}

func (s *printerStore) Save(ctx context.Context, ownerID uuid.UUID, cfg domain.PrinterConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned, ok := s.printers[ownerID]
	if !ok {
		owned = make(map[string]domain.PrinterConfig)
		s.printers[ownerID] = owned
	}
	if cfg.IsDefault {
		for id, other := range owned {
			if id != cfg.ID && other.IsDefault {
				other.IsDefault = false
				owned[id] = other
			}
		}
	}
	owned[cfg.ID] = cfg
	return nil
}

func (s *printerStore) Delete(ctx context.Context, ownerID uuid.UUID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.printers[ownerID][id]; !ok {
		return fmt.Errorf("printer %s: %w", id, domain.ErrNotFound)
	}
	delete(s.printers[ownerID], id)
	return nil
}
