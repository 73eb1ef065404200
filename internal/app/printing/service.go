package printing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
	"github.com/YelzhanWeb/repairdesk/internal/printing"
)

type Service struct {
	orders   interfaces.OrderRepository
	printers interfaces.PrinterStore
	renderer *printing.Renderer
	clock    clockwork.Clock
	logger   logger.Logger
}

func NewService(orders interfaces.OrderRepository, printers interfaces.PrinterStore, renderer *printing.Renderer, clock clockwork.Clock, logger logger.Logger) *Service {
	return &Service{
		orders:   orders,
		printers: printers,
		renderer: renderer,
		clock:    clock,
		logger:   logger,
	}
}

type renderFunc func(o *domain.ServiceOrder, p domain.PrinterConfig) (*printing.Document, error)

func (s *Service) Comanda(ctx context.Context, viewer domain.Viewer, orderID uuid.UUID, printerID string) (*printing.Document, error) {
	return s.print(ctx, viewer, orderID, printerID, "comanda", s.renderer.Comanda)
}

func (s *Service) StickerHTML(ctx context.Context, viewer domain.Viewer, orderID uuid.UUID, printerID string) (*printing.Document, error) {
	return s.print(ctx, viewer, orderID, printerID, "sticker", s.renderer.StickerHTML)
}

func (s *Service) StickerZPL(ctx context.Context, viewer domain.Viewer, orderID uuid.UUID, printerID string) (*printing.Document, error) {
	return s.print(ctx, viewer, orderID, printerID, "sticker_zpl", s.renderer.StickerZPL)
}

func (s *Service) print(ctx context.Context, viewer domain.Viewer, orderID uuid.UUID, printerID, kind string, render renderFunc) (*printing.Document, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !viewer.CanSee(o) {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}

	printer, err := s.resolvePrinter(ctx, viewer.ProfileID, printerID)
	if err != nil {
		return nil, err
	}

	doc, err := render(o, printer)
	if err != nil {
		s.logger.Error("render_failed", "Failed to render document", logger.RequestID(ctx), map[string]interface{}{
			"kind":         kind,
			"order_number": o.Number,
		}, err)
		return nil, err
	}

	s.dispatch(ctx, printer, o, kind)
	return doc, nil
}

// dispatch handles the printer connection. Browser and USB printers print
// the returned document client-side; network printers are only logged.
func (s *Service) dispatch(ctx context.Context, printer domain.PrinterConfig, o *domain.ServiceOrder, kind string) {
	if printer.ConnectionType != domain.ConnectionNetwork {
		return
	}
	s.logger.Info("print_intent_logged", fmt.Sprintf("Network print of %s for order %s", kind, o.Number), logger.RequestID(ctx), map[string]interface{}{
		"printer_id":   printer.ID,
		"printer_name": printer.Name,
		"address":      printer.Address,
		"kind":         kind,
		"order_number": o.Number,
	})
}

// resolvePrinter picks the requested printer, else the owner's default, else
// the built-in browser printer.
func (s *Service) resolvePrinter(ctx context.Context, ownerID uuid.UUID, printerID string) (domain.PrinterConfig, error) {
	if printerID != "" {
		p, err := s.printers.Get(ctx, ownerID, printerID)
		if err != nil {
			return domain.PrinterConfig{}, err
		}
		return *p, nil
	}

	configs, err := s.printers.List(ctx, ownerID)
	if err != nil {
		return domain.PrinterConfig{}, err
	}
	for _, p := range configs {
		if p.IsDefault {
			return p, nil
		}
	}
	return domain.DefaultPrinterConfig(), nil
}

func (s *Service) ListPrinters(ctx context.Context, viewer domain.Viewer) ([]domain.PrinterConfig, error) {
	configs, err := s.printers.List(ctx, viewer.ProfileID)
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return []domain.PrinterConfig{domain.DefaultPrinterConfig()}, nil
	}
	return configs, nil
}

// SavePrinter creates or replaces a printer config. The first saved printer
// becomes the default.
func (s *Service) SavePrinter(ctx context.Context, viewer domain.Viewer, cfg domain.PrinterConfig) (*domain.PrinterConfig, error) {
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.Address = strings.TrimSpace(cfg.Address)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.printers.List(ctx, viewer.ProfileID)
	if err != nil {
		return nil, err
	}
	if cfg.ID == "" || cfg.ID == domain.DefaultPrinterConfig().ID {
		cfg.ID = uuid.NewString()
	}
	if len(existing) == 0 {
		cfg.IsDefault = true
	}
	cfg.UpdatedAt = s.clock.Now()

	if err := s.printers.Save(ctx, viewer.ProfileID, cfg); err != nil {
		return nil, err
	}

	s.logger.Info("printer_saved", "Printer configuration saved", logger.RequestID(ctx), map[string]interface{}{
		"printer_id":      cfg.ID,
		"connection_type": string(cfg.ConnectionType),
		"is_default":      cfg.IsDefault,
	})
	return &cfg, nil
}

func (s *Service) DeletePrinter(ctx context.Context, viewer domain.Viewer, id string) error {
	return s.printers.Delete(ctx, viewer.ProfileID, id)
}
