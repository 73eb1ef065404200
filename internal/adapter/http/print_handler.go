package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/printing"
)

type printKind int

const (
	kindComanda printKind = iota
	kindSticker
	kindStickerZPL
)

func (s *Server) handlePrint(kind printKind) viewerHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		var render func(ctx context.Context, viewer domain.Viewer, orderID uuid.UUID, printerID string) (*printing.Document, error)
		switch kind {
		case kindComanda:
			render = s.svc.Printing.Comanda
		case kindSticker:
			render = s.svc.Printing.StickerHTML
		default:
			render = s.svc.Printing.StickerZPL
		}

		doc, err := render(r.Context(), viewer, id, r.URL.Query().Get("printer"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", doc.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.Filename))
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(doc.Body)
	}
}

func (s *Server) handleListPrinters(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	printers, err := s.svc.Printing.ListPrinters(r.Context(), viewer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, printers)
}

func (s *Server) handleSavePrinter(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	var cfg domain.PrinterConfig
	if err := decodeJSON(w, r, &cfg); err != nil {
		s.writeError(w, r, err)
		return
	}

	saved, err := s.svc.Printing.SavePrinter(r.Context(), viewer, cfg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeletePrinter(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	if err := s.svc.Printing.DeletePrinter(r.Context(), viewer, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
