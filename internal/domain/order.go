package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ServiceOrder represents one device received for repair
type ServiceOrder struct {
	ID                 uuid.UUID
	Number             string
	CustomerID         uuid.UUID
	Customer           *Customer
	DeviceType         string
	Brand              string
	Model              string
	SerialNumber       string
	Accessories        string
	ProblemDescription string
	Observations       string
	TechnicianNotes    string
	EstimatedCost      *float64
	Priority           Priority
	Status             Status
	Sede               string
	ReceivedBy         *uuid.UUID
	AssignedTo         *uuid.UUID
	Technician         *Profile
	CreatedAt          time.Time
	UpdatedAt          time.Time
	StartedAt          *time.Time
	CompletedAt        *time.Time
	DeliveredAt        *time.Time
}

// Device is the intake data for a single device of a multi-device order.
type Device struct {
	DeviceType         string
	Brand              string
	Model              string
	SerialNumber       string
	Accessories        string
	ProblemDescription string
	Observations       string
	EstimatedCost      *float64
	Priority           Priority
}

// Validate applies business validation rules
func (d Device) Validate() error {
	if n := utf8.RuneCountInString(strings.TrimSpace(d.DeviceType)); n < 1 || n > 60 {
		return invalid("device_type", "device type must be 1-60 characters")
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(d.ProblemDescription)); n < 3 || n > 2000 {
		return invalid("problem_description", "problem description must be 3-2000 characters")
	}
	if d.EstimatedCost != nil && *d.EstimatedCost < 0 {
		return invalid("estimated_cost", "estimated cost must not be negative")
	}
	if d.Priority != "" && !d.Priority.Valid() {
		return invalid("priority", "priority must be one of: normal, urgent")
	}
	return nil
}

// NewServiceOrder creates a pending, unassigned order for a single device.
// The order number is assigned separately.
func NewServiceOrder(customerID uuid.UUID, d Device, sede string, receivedBy *uuid.UUID, now time.Time) (*ServiceOrder, error) {
	if customerID == uuid.Nil {
		return nil, invalid("customer_id", "customer is required")
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	priority := d.Priority
	if priority == "" {
		priority = PriorityNormal
	}

	return &ServiceOrder{
		ID:                 uuid.New(),
		CustomerID:         customerID,
		DeviceType:         strings.TrimSpace(d.DeviceType),
		Brand:              strings.TrimSpace(d.Brand),
		Model:              strings.TrimSpace(d.Model),
		SerialNumber:       strings.TrimSpace(d.SerialNumber),
		Accessories:        strings.TrimSpace(d.Accessories),
		ProblemDescription: strings.TrimSpace(d.ProblemDescription),
		Observations:       strings.TrimSpace(d.Observations),
		EstimatedCost:      d.EstimatedCost,
		Priority:           priority,
		Status:             StatusPending,
		Sede:               sede,
		ReceivedBy:         receivedBy,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// IsAssignedTo reports whether the order is assigned to the given profile.
func (o *ServiceOrder) IsAssignedTo(profileID uuid.UUID) bool {
	return o.AssignedTo != nil && *o.AssignedTo == profileID
}

// Assign sets the technician responsible for the order.
func (o *ServiceOrder) Assign(technicianID uuid.UUID, now time.Time) error {
	if o.Status == StatusDelivered || o.Status == StatusCancelled {
		return ErrInvalidStatusTransition
	}
	o.AssignedTo = &technicianID
	o.Technician = nil
	o.UpdatedAt = now
	return nil
}

// TransitionTo transitions the order to a new status. Starting work assigns
// the actor when the order has no technician yet; releasing clears it.
func (o *ServiceOrder) TransitionTo(newStatus Status, actorID uuid.UUID, now time.Time) error {
	if !o.CanTransitionTo(newStatus) {
		return ErrInvalidStatusTransition
	}

	switch newStatus {
	case StatusInProgress:
		if o.AssignedTo == nil {
			o.AssignedTo = &actorID
		}
		o.StartedAt = &now
	case StatusPending:
		o.AssignedTo = nil
		o.Technician = nil
		o.StartedAt = nil
	case StatusCompleted:
		o.CompletedAt = &now
	case StatusDelivered:
		o.DeliveredAt = &now
	}

	o.Status = newStatus
	o.UpdatedAt = now
	return nil
}

// CanTransitionTo checks if the order can transition to the new status
func (o *ServiceOrder) CanTransitionTo(newStatus Status) bool {
	validTransitions := map[Status][]Status{
		StatusPending:    {StatusInProgress, StatusCancelled},
		StatusInProgress: {StatusCompleted, StatusPending},
		StatusCompleted:  {StatusDelivered},
		StatusDelivered:  {},
		StatusCancelled:  {},
	}

	for _, s := range validTransitions[o.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}
