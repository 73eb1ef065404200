// Package memory holds in-process implementations of the repositories and
// the printer store. The printer store backs deployments without Redis; the
// repositories back service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

// Store keeps all records behind a single lock so that multi-record writes
// are atomic, like a database transaction.
type Store struct {
	mu        sync.RWMutex
	customers map[uuid.UUID]*domain.Customer
	orders    map[uuid.UUID]*domain.ServiceOrder
	logs      []*domain.StatusLog
	profiles  map[uuid.UUID]*domain.Profile
	invites   map[uuid.UUID]*domain.PendingInvite
	nextLogID int64

	// Calls counts repository calls per method, for tests.
	Calls map[string]int
}

func NewStore() *Store {
	return &Store{
		customers: make(map[uuid.UUID]*domain.Customer),
		orders:    make(map[uuid.UUID]*domain.ServiceOrder),
		profiles:  make(map[uuid.UUID]*domain.Profile),
		invites:   make(map[uuid.UUID]*domain.PendingInvite),
		Calls:     make(map[string]int),
	}
}

// TotalCalls returns the number of repository calls made so far.
func (s *Store) TotalCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, n := range s.Calls {
		total += n
	}
	return total
}

func (s *Store) track(method string) {
	s.Calls[method]++
}

func (s *Store) Customers() interfaces.CustomerRepository { return customerRepo{s} }
func (s *Store) Orders() interfaces.OrderRepository       { return orderRepo{s} }
func (s *Store) Profiles() interfaces.ProfileRepository   { return profileRepo{s} }
func (s *Store) Invites() interfaces.InviteRepository     { return inviteRepo{s} }

func copyCustomer(c *domain.Customer) *domain.Customer {
	cp := *c
	return &cp
}

func copyProfile(p *domain.Profile) *domain.Profile {
	cp := *p
	return &cp
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// --- customers ---

type customerRepo struct{ s *Store }

func (r customerRepo) Create(ctx context.Context, c *domain.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("customers.Create")

	for _, existing := range r.s.customers {
		if existing.Cedula == c.Cedula {
			return fmt.Errorf("failed to create customer %s: %w", c.Cedula, domain.ErrDuplicateCedula)
		}
	}
	r.s.customers[c.ID] = copyCustomer(c)
	return nil
}

func (r customerRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("customers.FindByID")

	c, ok := r.s.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer: %w", domain.ErrNotFound)
	}
	return copyCustomer(c), nil
}

func (r customerRepo) FindByCedula(ctx context.Context, cedula string) (*domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("customers.FindByCedula")

	for _, c := range r.s.customers {
		if c.Cedula == cedula {
			return copyCustomer(c), nil
		}
	}
	return nil, fmt.Errorf("customer: %w", domain.ErrNotFound)
}

func (r customerRepo) Update(ctx context.Context, c *domain.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("customers.Update")

	if _, ok := r.s.customers[c.ID]; !ok {
		return fmt.Errorf("customer %s: %w", c.ID, domain.ErrNotFound)
	}
	for _, existing := range r.s.customers {
		if existing.ID != c.ID && existing.Cedula == c.Cedula {
			return fmt.Errorf("failed to update customer %s: %w", c.Cedula, domain.ErrDuplicateCedula)
		}
	}
	r.s.customers[c.ID] = copyCustomer(c)
	return nil
}

func (r customerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("customers.Delete")

	if _, ok := r.s.customers[id]; !ok {
		return fmt.Errorf("customer %s: %w", id, domain.ErrNotFound)
	}
	delete(r.s.customers, id)
	return nil
}

func (r customerRepo) Search(ctx context.Context, query string, limit int) ([]*domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("customers.Search")

	var out []*domain.Customer
	for _, c := range r.s.customers {
		if query == "" || containsFold(c.Cedula, query) || containsFold(c.FullName, query) || containsFold(c.Phone, query) {
			out = append(out, copyCustomer(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r customerRepo) CountOrders(ctx context.Context, id uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("customers.CountOrders")

	n := 0
	for _, o := range r.s.orders {
		if o.CustomerID == id {
			n++
		}
	}
	return n, nil
}

// --- orders ---

type orderRepo struct{ s *Store }

// hydrate returns a copy with the customer and technician relations expanded.
func (r orderRepo) hydrate(o *domain.ServiceOrder) *domain.ServiceOrder {
	cp := *o
	if c, ok := r.s.customers[o.CustomerID]; ok {
		cp.Customer = copyCustomer(c)
	}
	cp.Technician = nil
	if o.AssignedTo != nil {
		if p, ok := r.s.profiles[*o.AssignedTo]; ok {
			cp.Technician = &domain.Profile{ID: p.ID, FullName: p.FullName}
		}
	}
	return &cp
}

func (r orderRepo) appendLog(o *domain.ServiceOrder, changedBy string, notes *string) {
	r.s.nextLogID++
	r.s.logs = append(r.s.logs, &domain.StatusLog{
		ID:        r.s.nextLogID,
		OrderID:   o.ID,
		Status:    o.Status,
		ChangedBy: changedBy,
		ChangedAt: o.UpdatedAt,
		Notes:     notes,
	})
}

func (r orderRepo) CreateBatch(ctx context.Context, orders []*domain.ServiceOrder, changedBy string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("orders.CreateBatch")

	seen := make(map[string]bool, len(orders))
	for _, existing := range r.s.orders {
		seen[existing.Number] = true
	}
	for _, o := range orders {
		if seen[o.Number] {
			return fmt.Errorf("failed to insert order %s: %w", o.Number, domain.ErrDuplicateOrderNumber)
		}
		if _, ok := r.s.customers[o.CustomerID]; !ok {
			return fmt.Errorf("failed to insert order: customer %s does not exist", o.CustomerID)
		}
		seen[o.Number] = true
	}

	for _, o := range orders {
		cp := *o
		cp.Customer, cp.Technician = nil, nil
		r.s.orders[o.ID] = &cp
		r.appendLog(o, changedBy, nil)
	}
	return nil
}

func (r orderRepo) ExistsNumber(ctx context.Context, number string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("orders.ExistsNumber")

	for _, o := range r.s.orders {
		if o.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (r orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.ServiceOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("orders.FindByID")

	o, ok := r.s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order: %w", domain.ErrNotFound)
	}
	return r.hydrate(o), nil
}

func (r orderRepo) FindByNumber(ctx context.Context, number string) (*domain.ServiceOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("orders.FindByNumber")

	for _, o := range r.s.orders {
		if o.Number == number {
			return r.hydrate(o), nil
		}
	}
	return nil, fmt.Errorf("order: %w", domain.ErrNotFound)
}

func (r orderRepo) List(ctx context.Context, f interfaces.OrderFilter) ([]*domain.ServiceOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("orders.List")

	var out []*domain.ServiceOrder
	for _, stored := range r.s.orders {
		o := r.hydrate(stored)
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Sede != "" && o.Sede != f.Sede {
			continue
		}
		if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
			continue
		}
		if f.VisibleTo != nil && !(o.Status == domain.StatusPending && o.AssignedTo == nil) && !o.IsAssignedTo(*f.VisibleTo) {
			continue
		}
		if q := strings.TrimSpace(f.Query); q != "" {
			if !containsFold(o.Number, q) && !containsFold(o.Customer.FullName, q) &&
				!containsFold(o.Customer.Cedula, q) && !containsFold(o.SerialNumber, q) {
				continue
			}
		}
		out = append(out, o)
	}

	sort.Slice(out, func(i, j int) bool {
		ui, uj := out[i].Priority == domain.PriorityUrgent, out[j].Priority == domain.PriorityUrgent
		if ui != uj {
			return ui
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r orderRepo) put(o *domain.ServiceOrder) error {
	if _, ok := r.s.orders[o.ID]; !ok {
		return fmt.Errorf("order %s: %w", o.ID, domain.ErrNotFound)
	}
	cp := *o
	cp.Customer, cp.Technician = nil, nil
	r.s.orders[o.ID] = &cp
	return nil
}

func (r orderRepo) UpdateStatusWithLog(ctx context.Context, o *domain.ServiceOrder, changedBy string, notes *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("orders.UpdateStatusWithLog")

	if err := r.put(o); err != nil {
		return err
	}
	r.appendLog(o, changedBy, notes)
	return nil
}

func (r orderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("orders.Delete")

	if _, ok := r.s.orders[id]; !ok {
		return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	delete(r.s.orders, id)
	return nil
}

func (r orderRepo) GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("orders.GetStatusHistory")

	var out []*domain.StatusLog
	for _, l := range r.s.logs {
		if l.OrderID == orderID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- profiles ---

type profileRepo struct{ s *Store }

func (r profileRepo) insert(p *domain.Profile) error {
	for _, existing := range r.s.profiles {
		if existing.Email == p.Email {
			return fmt.Errorf("failed to create profile %s: %w", p.Email, domain.ErrDuplicateEmail)
		}
	}
	r.s.profiles[p.ID] = copyProfile(p)
	return nil
}

func (r profileRepo) Create(ctx context.Context, p *domain.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("profiles.Create")
	return r.insert(p)
}

func (r profileRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("profiles.FindByID")

	p, ok := r.s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile: %w", domain.ErrNotFound)
	}
	return copyProfile(p), nil
}

func (r profileRepo) FindByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("profiles.FindByEmail")

	for _, p := range r.s.profiles {
		if p.Email == email {
			return copyProfile(p), nil
		}
	}
	return nil, fmt.Errorf("profile: %w", domain.ErrNotFound)
}

func (r profileRepo) List(ctx context.Context) ([]*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("profiles.List")

	out := make([]*domain.Profile, 0, len(r.s.profiles))
	for _, p := range r.s.profiles {
		out = append(out, copyProfile(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (r profileRepo) Update(ctx context.Context, p *domain.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("profiles.Update")

	if _, ok := r.s.profiles[p.ID]; !ok {
		return fmt.Errorf("profile %s: %w", p.ID, domain.ErrNotFound)
	}
	r.s.profiles[p.ID] = copyProfile(p)
	return nil
}

func (r profileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("profiles.Delete")

	if _, ok := r.s.profiles[id]; !ok {
		return fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	delete(r.s.profiles, id)
	for _, o := range r.s.orders {
		if o.IsAssignedTo(id) {
			o.AssignedTo = nil
		}
	}
	return nil
}

func (r profileRepo) TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("profiles.TouchLastSeen")

	if p, ok := r.s.profiles[id]; ok {
		p.LastSeenAt = &at
	}
	return nil
}

func (r profileRepo) TechnicianWorkloads(ctx context.Context) ([]*domain.TechnicianWorkload, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("profiles.TechnicianWorkloads")

	var out []*domain.TechnicianWorkload
	for _, p := range r.s.profiles {
		if p.Role != domain.RoleTechnician || !p.Active {
			continue
		}
		w := &domain.TechnicianWorkload{ProfileID: p.ID, FullName: p.FullName, Sede: p.Sede, LastSeenAt: p.LastSeenAt}
		for _, o := range r.s.orders {
			if !o.IsAssignedTo(p.ID) {
				continue
			}
			switch o.Status {
			case domain.StatusInProgress:
				w.ActiveOrders++
			case domain.StatusCompleted, domain.StatusDelivered:
				w.CompletedOrders++
			}
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

// --- invites ---

type inviteRepo struct{ s *Store }

func (r inviteRepo) Create(ctx context.Context, inv *domain.PendingInvite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("invites.Create")

	for _, existing := range r.s.invites {
		if existing.Email == inv.Email && existing.AcceptedAt == nil {
			return fmt.Errorf("failed to create invite for %s: %w", inv.Email, domain.ErrDuplicateEmail)
		}
	}
	cp := *inv
	r.s.invites[inv.ID] = &cp
	return nil
}

func (r inviteRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.PendingInvite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("invites.FindByTokenHash")

	for _, inv := range r.s.invites {
		if inv.TokenHash == tokenHash {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("invite: %w", domain.ErrNotFound)
}

func (r inviteRepo) FindPendingByEmail(ctx context.Context, email string) (*domain.PendingInvite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("invites.FindPendingByEmail")

	for _, inv := range r.s.invites {
		if inv.Email == email && inv.AcceptedAt == nil {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("invite: %w", domain.ErrNotFound)
}

func (r inviteRepo) List(ctx context.Context) ([]*domain.PendingInvite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("invites.List")

	var out []*domain.PendingInvite
	for _, inv := range r.s.invites {
		if inv.AcceptedAt == nil {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r inviteRepo) Accept(ctx context.Context, inviteID uuid.UUID, p *domain.Profile, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("invites.Accept")

	inv, ok := r.s.invites[inviteID]
	if !ok || inv.AcceptedAt != nil {
		return fmt.Errorf("invite %s: %w", inviteID, domain.ErrInviteUsed)
	}
	if err := (profileRepo{r.s}).insert(p); err != nil {
		return err
	}
	inv.AcceptedAt = &at
	return nil
}

func (r inviteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.track("invites.Delete")

	if _, ok := r.s.invites[id]; !ok {
		return fmt.Errorf("invite %s: %w", id, domain.ErrNotFound)
	}
	delete(r.s.invites, id)
	return nil
}
