package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

// Ответы API

type customerResponse struct {
	ID        uuid.UUID `json:"id"`
	Cedula    string    `json:"cedula"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCustomer(c *domain.Customer) *customerResponse {
	if c == nil {
		return nil
	}
	return &customerResponse{
		ID:        c.ID,
		Cedula:    c.Cedula,
		FullName:  c.FullName,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type profileRef struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
}

type orderResponse struct {
	ID                 uuid.UUID         `json:"id"`
	OrderNumber        string            `json:"order_number"`
	CustomerID         uuid.UUID         `json:"customer_id"`
	Customer           *customerResponse `json:"customer,omitempty"`
	DeviceType         string            `json:"device_type"`
	Brand              string            `json:"brand"`
	Model              string            `json:"model"`
	SerialNumber       string            `json:"serial_number"`
	Accessories        string            `json:"accessories"`
	ProblemDescription string            `json:"problem_description"`
	Observations       string            `json:"observations"`
	TechnicianNotes    string            `json:"technician_notes"`
	EstimatedCost      *float64          `json:"estimated_cost"`
	Priority           domain.Priority   `json:"priority"`
	Status             domain.Status     `json:"status"`
	Sede               string            `json:"sede"`
	ReceivedBy         *uuid.UUID        `json:"received_by"`
	AssignedTo         *uuid.UUID        `json:"assigned_to"`
	Technician         *profileRef       `json:"technician,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	StartedAt          *time.Time        `json:"started_at"`
	CompletedAt        *time.Time        `json:"completed_at"`
	DeliveredAt        *time.Time        `json:"delivered_at"`
}

func toOrder(o *domain.ServiceOrder) orderResponse {
	resp := orderResponse{
		ID:                 o.ID,
		OrderNumber:        o.Number,
		CustomerID:         o.CustomerID,
		Customer:           toCustomer(o.Customer),
		DeviceType:         o.DeviceType,
		Brand:              o.Brand,
		Model:              o.Model,
		SerialNumber:       o.SerialNumber,
		Accessories:        o.Accessories,
		ProblemDescription: o.ProblemDescription,
		Observations:       o.Observations,
		TechnicianNotes:    o.TechnicianNotes,
		EstimatedCost:      o.EstimatedCost,
		Priority:           o.Priority,
		Status:             o.Status,
		Sede:               o.Sede,
		ReceivedBy:         o.ReceivedBy,
		AssignedTo:         o.AssignedTo,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
		StartedAt:          o.StartedAt,
		CompletedAt:        o.CompletedAt,
		DeliveredAt:        o.DeliveredAt,
	}
	if o.Technician != nil {
		resp.Technician = &profileRef{ID: o.Technician.ID, FullName: o.Technician.FullName}
	}
	return resp
}

func toOrders(orders []*domain.ServiceOrder) []orderResponse {
	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrder(o)
	}
	return resp
}

type statusLogResponse struct {
	Status    domain.Status `json:"status"`
	ChangedBy string        `json:"changed_by"`
	Timestamp time.Time     `json:"timestamp"`
	Notes     *string       `json:"notes,omitempty"`
}

func toHistory(logs []*domain.StatusLog) []statusLogResponse {
	resp := make([]statusLogResponse, len(logs))
	for i, l := range logs {
		resp[i] = statusLogResponse{
			Status:    l.Status,
			ChangedBy: l.ChangedBy,
			Timestamp: l.ChangedAt,
			Notes:     l.Notes,
		}
	}
	return resp
}

type profileResponse struct {
	ID         uuid.UUID   `json:"id"`
	Email      string      `json:"email"`
	FullName   string      `json:"full_name"`
	Role       domain.Role `json:"role"`
	Sede       string      `json:"sede"`
	Active     bool        `json:"active"`
	LastSeenAt *time.Time  `json:"last_seen_at"`
	CreatedAt  time.Time   `json:"created_at"`
}

func toProfile(p *domain.Profile) profileResponse {
	return profileResponse{
		ID:         p.ID,
		Email:      p.Email,
		FullName:   p.FullName,
		Role:       p.Role,
		Sede:       p.Sede,
		Active:     p.Active,
		LastSeenAt: p.LastSeenAt,
		CreatedAt:  p.CreatedAt,
	}
}

type inviteResponse struct {
	ID         uuid.UUID   `json:"id"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	Sede       string      `json:"sede"`
	ExpiresAt  time.Time   `json:"expires_at"`
	AcceptedAt *time.Time  `json:"accepted_at"`
	CreatedAt  time.Time   `json:"created_at"`
	Token      string      `json:"token,omitempty"`
}

func toInvite(inv *domain.PendingInvite) inviteResponse {
	return inviteResponse{
		ID:         inv.ID,
		Email:      inv.Email,
		Role:       inv.Role,
		Sede:       inv.Sede,
		ExpiresAt:  inv.ExpiresAt,
		AcceptedAt: inv.AcceptedAt,
		CreatedAt:  inv.CreatedAt,
	}
}

type queueResponse struct {
	View   domain.QueueView      `json:"view"`
	Orders []orderResponse       `json:"orders"`
	Counts map[domain.Status]int `json:"counts"`
}

type trackingResponse struct {
	OrderNumber    string        `json:"order_number"`
	CurrentStatus  domain.Status `json:"current_status"`
	DeviceType     string        `json:"device_type"`
	UpdatedAt      time.Time     `json:"updated_at"`
	DeliveredAt    *time.Time    `json:"delivered_at,omitempty"`
	TechnicianName *string       `json:"technician_name,omitempty"`
}

func toTracking(t *interfaces.TrackingOrderResponse) trackingResponse {
	return trackingResponse{
		OrderNumber:    t.OrderNumber,
		CurrentStatus:  t.CurrentStatus,
		DeviceType:     t.DeviceType,
		UpdatedAt:      t.UpdatedAt,
		DeliveredAt:    t.DeliveredAt,
		TechnicianName: t.TechnicianName,
	}
}

type technicianStatusResponse struct {
	ProfileID       uuid.UUID             `json:"profile_id"`
	FullName        string                `json:"full_name"`
	Sede            string                `json:"sede"`
	Status          domain.PresenceStatus `json:"status"`
	ActiveOrders    int                   `json:"active_orders"`
	CompletedOrders int                   `json:"completed_orders"`
	LastSeen        *time.Time            `json:"last_seen"`
}

// Запросы API

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type acceptInviteRequest struct {
	Token    string `json:"token"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type customerRequest struct {
	Cedula   string `json:"cedula"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
}

func (r customerRequest) command() interfaces.CustomerCommand {
	return interfaces.CustomerCommand{
		Cedula:   r.Cedula,
		FullName: r.FullName,
		Phone:    r.Phone,
		Email:    r.Email,
		Address:  r.Address,
	}
}

type deviceRequest struct {
	DeviceType         string          `json:"device_type"`
	Brand              string          `json:"brand"`
	Model              string          `json:"model"`
	SerialNumber       string          `json:"serial_number"`
	Accessories        string          `json:"accessories"`
	ProblemDescription string          `json:"problem_description"`
	Observations       string          `json:"observations"`
	EstimatedCost      *float64        `json:"estimated_cost"`
	Priority           domain.Priority `json:"priority"`
}

type createOrdersRequest struct {
	CustomerID uuid.UUID       `json:"customer_id"`
	Sede       string          `json:"sede"`
	Devices    []deviceRequest `json:"devices"`
}

func (r createOrdersRequest) command() interfaces.CreateOrdersCommand {
	devices := make([]domain.Device, len(r.Devices))
	for i, d := range r.Devices {
		devices[i] = domain.Device{
			DeviceType:         d.DeviceType,
			Brand:              d.Brand,
			Model:              d.Model,
			SerialNumber:       d.SerialNumber,
			Accessories:        d.Accessories,
			ProblemDescription: d.ProblemDescription,
			Observations:       d.Observations,
			EstimatedCost:      d.EstimatedCost,
			Priority:           d.Priority,
		}
	}
	return interfaces.CreateOrdersCommand{
		CustomerID: r.CustomerID,
		Sede:       r.Sede,
		Devices:    devices,
	}
}

type updateOrderRequest struct {
	Brand              *string          `json:"brand"`
	Model              *string          `json:"model"`
	SerialNumber       *string          `json:"serial_number"`
	Accessories        *string          `json:"accessories"`
	ProblemDescription *string          `json:"problem_description"`
	Observations       *string          `json:"observations"`
	TechnicianNotes    *string          `json:"technician_notes"`
	EstimatedCost      *float64         `json:"estimated_cost"`
	Priority           *domain.Priority `json:"priority"`
}

type assignRequest struct {
	TechnicianID uuid.UUID `json:"technician_id"`
}

type statusRequest struct {
	Notes *string `json:"notes"`
}

type updateUserRequest struct {
	FullName *string      `json:"full_name"`
	Role     *domain.Role `json:"role"`
	Sede     *string      `json:"sede"`
	Active   *bool        `json:"active"`
}

type createInviteRequest struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	Sede  string      `json:"sede"`
}
