package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/printing"
)

// Команды для сервисов
type CustomerCommand struct {
	Cedula   string
	FullName string
	Phone    string
	Email    string
	Address  string
}

type CreateOrdersCommand struct {
	CustomerID uuid.UUID
	Sede       string
	Devices    []domain.Device
}

type UpdateOrderCommand struct {
	ID                 uuid.UUID
	Brand              *string
	Model              *string
	SerialNumber       *string
	Accessories        *string
	ProblemDescription *string
	Observations       *string
	TechnicianNotes    *string
	EstimatedCost      *float64
	Priority           *domain.Priority
}

type ListOrdersQuery struct {
	View       domain.QueueView
	Query      string
	CustomerID *uuid.UUID
	Limit      int
}

type UpdateUserCommand struct {
	ID       uuid.UUID
	FullName *string
	Role     *domain.Role
	Sede     *string
	Active   *bool
}

type CreateInviteCommand struct {
	Email string
	Role  domain.Role
	Sede  string
}

type AcceptInviteCommand struct {
	Token    string
	FullName string
	Password string
}

// Интерфейсы Сервисов (Business Logic)
type CustomerService interface {
	Create(ctx context.Context, viewer domain.Viewer, cmd CustomerCommand) (*domain.Customer, error)
	Get(ctx context.Context, viewer domain.Viewer, id uuid.UUID) (*domain.Customer, error)
	Update(ctx context.Context, viewer domain.Viewer, id uuid.UUID, cmd CustomerCommand) (*domain.Customer, error)
	Search(ctx context.Context, viewer domain.Viewer, query string) ([]*domain.Customer, error)
	Delete(ctx context.Context, viewer domain.Viewer, id uuid.UUID) error
}

type OrderService interface {
	CreateOrders(ctx context.Context, viewer domain.Viewer, cmd CreateOrdersCommand) ([]*domain.ServiceOrder, error)
	GetOrder(ctx context.Context, viewer domain.Viewer, id uuid.UUID) (*domain.ServiceOrder, error)
	ListOrders(ctx context.Context, viewer domain.Viewer, q ListOrdersQuery) ([]*domain.ServiceOrder, error)
	UpdateOrder(ctx context.Context, viewer domain.Viewer, cmd UpdateOrderCommand) (*domain.ServiceOrder, error)
	AssignTechnician(ctx context.Context, viewer domain.Viewer, orderID, technicianID uuid.UUID) (*domain.ServiceOrder, error)
	ChangeStatus(ctx context.Context, viewer domain.Viewer, orderID uuid.UUID, status domain.Status, notes *string) (*domain.ServiceOrder, error)
	DeleteOrder(ctx context.Context, viewer domain.Viewer, id uuid.UUID) error
	History(ctx context.Context, viewer domain.Viewer, id uuid.UUID) ([]*domain.StatusLog, error)
}

type WorkshopService interface {
	Queue(ctx context.Context, viewer domain.Viewer, view domain.QueueView) (*QueueSnapshot, error)
	Heartbeat(ctx context.Context, viewer domain.Viewer) error
}

type TrackingService interface {
	GetOrderStatus(ctx context.Context, orderNumber string) (*TrackingOrderResponse, error)
	GetOrderHistory(ctx context.Context, orderNumber string) ([]*domain.StatusLog, error)
	GetTechniciansStatus(ctx context.Context, viewer domain.Viewer) ([]*TrackingTechnicianResponse, error)
}

type AuthService interface {
	SignIn(ctx context.Context, email, password string) (*domain.Profile, error)
	Profile(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	AcceptInvite(ctx context.Context, cmd AcceptInviteCommand) (*domain.Profile, error)
}

type AdminService interface {
	ListUsers(ctx context.Context, viewer domain.Viewer) ([]*domain.Profile, error)
	UpdateUser(ctx context.Context, viewer domain.Viewer, cmd UpdateUserCommand) (*domain.Profile, error)
	DeleteUser(ctx context.Context, viewer domain.Viewer, id uuid.UUID) error
	CreateInvite(ctx context.Context, viewer domain.Viewer, cmd CreateInviteCommand) (*domain.PendingInvite, string, error)
	ListInvites(ctx context.Context, viewer domain.Viewer) ([]*domain.PendingInvite, error)
	RevokeInvite(ctx context.Context, viewer domain.Viewer, id uuid.UUID) error
}

type PrintService interface {
	Comanda(ctx context.Context, viewer domain.Viewer, orderID uuid.UUID, printerID string) (*printing.Document, error)
	StickerHTML(ctx context.Context, viewer domain.Viewer, orderID uuid.UUID, printerID string) (*printing.Document, error)
	StickerZPL(ctx context.Context, viewer domain.Viewer, orderID uuid.UUID, printerID string) (*printing.Document, error)
	ListPrinters(ctx context.Context, viewer domain.Viewer) ([]domain.PrinterConfig, error)
	SavePrinter(ctx context.Context, viewer domain.Viewer, cfg domain.PrinterConfig) (*domain.PrinterConfig, error)
	DeletePrinter(ctx context.Context, viewer domain.Viewer, id string) error
}

// Ответы сервисов
type QueueSnapshot struct {
	View   domain.QueueView
	Orders []*domain.ServiceOrder
	Counts map[domain.Status]int
}

type TrackingOrderResponse struct {
	OrderNumber    string
	CurrentStatus  domain.Status
	DeviceType     string
	UpdatedAt      time.Time
	DeliveredAt    *time.Time
	TechnicianName *string
}

type TrackingTechnicianResponse struct {
	ProfileID       uuid.UUID
	FullName        string
	Sede            string
	Status          domain.PresenceStatus
	ActiveOrders    int
	CompletedOrders int
	LastSeen        *time.Time
}
