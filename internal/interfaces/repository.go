package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
)

// OrderFilter narrows order listings. VisibleTo restricts the result to
// unassigned pending orders and orders assigned to that technician.
type OrderFilter struct {
	Status     domain.Status
	Sede       string
	Query      string
	CustomerID *uuid.UUID
	VisibleTo  *uuid.UUID
	Limit      int
}

// Интерфейсы Репозиториев (Adapter/Postgres)
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	FindByCedula(ctx context.Context, cedula string) (*domain.Customer, error)
	Update(ctx context.Context, customer *domain.Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, limit int) ([]*domain.Customer, error)
	CountOrders(ctx context.Context, id uuid.UUID) (int, error)
}

type OrderRepository interface {
	CreateBatch(ctx context.Context, orders []*domain.ServiceOrder, changedBy string) error
	ExistsNumber(ctx context.Context, number string) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.ServiceOrder, error)
	FindByNumber(ctx context.Context, number string) (*domain.ServiceOrder, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.ServiceOrder, error)
	UpdateStatusWithLog(ctx context.Context, order *domain.ServiceOrder, changedBy string, notes *string) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusLog, error)
}

type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	FindByEmail(ctx context.Context, email string) (*domain.Profile, error)
	List(ctx context.Context) ([]*domain.Profile, error)
	Update(ctx context.Context, profile *domain.Profile) error
	Delete(ctx context.Context, id uuid.UUID) error
	TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error
	TechnicianWorkloads(ctx context.Context) ([]*domain.TechnicianWorkload, error)
}

type InviteRepository interface {
	Create(ctx context.Context, invite *domain.PendingInvite) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*domain.PendingInvite, error)
	FindPendingByEmail(ctx context.Context, email string) (*domain.PendingInvite, error)
	List(ctx context.Context) ([]*domain.PendingInvite, error)
	// Accept creates the profile and marks the invite used atomically.
	Accept(ctx context.Context, inviteID uuid.UUID, profile *domain.Profile, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PrinterStore keeps printer configurations per owner in the key-value store.
type PrinterStore interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]domain.PrinterConfig, error)
	Get(ctx context.Context, ownerID uuid.UUID, id string) (*domain.PrinterConfig, error)
	Save(ctx context.Context, ownerID uuid.UUID, cfg domain.PrinterConfig) error
	Delete(ctx context.Context, ownerID uuid.UUID, id string) error
}
