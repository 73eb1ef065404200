package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

const searchLimit = 50

type Service struct {
	repo   interfaces.CustomerRepository
	clock  clockwork.Clock
	logger logger.Logger
}

func NewService(repo interfaces.CustomerRepository, clock clockwork.Clock, logger logger.Logger) *Service {
	return &Service{
		repo:   repo,
		clock:  clock,
		logger: logger,
	}
}

func (s *Service) Create(ctx context.Context, viewer domain.Viewer, cmd interfaces.CustomerCommand) (*domain.Customer, error) {
	if !viewer.Can(domain.PermManageCustomers) {
		return nil, domain.ErrForbidden
	}

	// 1. Валидация и нормализация
	c, err := domain.NewCustomer(cmd.Cedula, cmd.FullName, cmd.Phone, cmd.Email, cmd.Address, s.clock.Now())
	if err != nil {
		return nil, err
	}

	// 2. Проверка уникальности cedula
	existing, err := s.repo.FindByCedula(ctx, c.Cedula)
	switch {
	case err == nil:
		return nil, fmt.Errorf("cedula %s belongs to %s: %w", existing.Cedula, existing.FullName, domain.ErrDuplicateCedula)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	// 3. Сохранение (уникальный индекс ловит гонку)
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("customer_created", "Customer created", logger.RequestID(ctx), map[string]interface{}{
		"customer_id": c.ID.String(),
		"created_by":  viewer.FullName,
	})
	return c, nil
}

func (s *Service) Get(ctx context.Context, viewer domain.Viewer, id uuid.UUID) (*domain.Customer, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, viewer domain.Viewer, id uuid.UUID, cmd interfaces.CustomerCommand) (*domain.Customer, error) {
	if !viewer.Can(domain.PermManageCustomers) {
		return nil, domain.ErrForbidden
	}

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.Cedula = strings.ToUpper(strings.TrimSpace(cmd.Cedula))
	c.FullName = strings.TrimSpace(cmd.FullName)
	c.Phone = strings.TrimSpace(cmd.Phone)
	c.Email = strings.ToLower(strings.TrimSpace(cmd.Email))
	c.Address = strings.TrimSpace(cmd.Address)
	c.UpdatedAt = s.clock.Now()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Search matches cedula, name or phone. An empty query lists customers.
func (s *Service) Search(ctx context.Context, viewer domain.Viewer, query string) ([]*domain.Customer, error) {
	return s.repo.Search(ctx, strings.TrimSpace(query), searchLimit)
}

func (s *Service) Delete(ctx context.Context, viewer domain.Viewer, id uuid.UUID) error {
	if !viewer.Can(domain.PermDeleteRecords) {
		return domain.ErrForbidden
	}

	n, err := s.repo.CountOrders(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("customer has %d orders: %w", n, domain.ErrCustomerHasOrders)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("customer_deleted", "Customer deleted", logger.RequestID(ctx), map[string]interface{}{
		"customer_id": id.String(),
		"deleted_by":  viewer.FullName,
	})
	return nil
}
