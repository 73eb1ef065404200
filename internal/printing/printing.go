// Package printing renders the intake receipt (comanda) and device stickers
// for a service order.
package printing

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
	"unicode/utf8"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
)

//go:embed templates/*
var templateFiles embed.FS

const (
	StickerNameLimit    = 20
	StickerProblemLimit = 120
	ellipsis            = "..."
	dotsPerMM           = 8 // 203 dpi
)

// Shop is the business data printed on every document.
type Shop struct {
	Name    string
	Address string
	Phone   string
}

// Document is a rendered printable artifact.
type Document struct {
	ContentType string
	Filename    string
	Body        []byte
}

type Renderer struct {
	shop     Shop
	location *time.Location
	html     *htmltemplate.Template
	zpl      *texttemplate.Template
}

func NewRenderer(shop Shop, location *time.Location) (*Renderer, error) {
	if location == nil {
		location = time.Local
	}

	html, err := htmltemplate.New("").Funcs(htmltemplate.FuncMap{
		"money": formatMoney,
	}).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse html templates: %w", err)
	}

	zpl, err := texttemplate.New("").Funcs(texttemplate.FuncMap{
		"zpl": escapeZPL,
	}).ParseFS(templateFiles, "templates/*.zpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse zpl templates: %w", err)
	}

	return &Renderer{shop: shop, location: location, html: html, zpl: zpl}, nil
}

type pageData struct {
	Shop       Shop
	Order      *domain.ServiceOrder
	Customer   *domain.Customer
	Printer    domain.PrinterConfig
	ReceivedAt string
	Device     string
	Sticker    stickerData
}

type stickerData struct {
	OrderNumber  string
	CustomerName string
	Phone        string
	Device       string
	Problem      string
	ReceivedAt   string
	WidthDots    int
	TextWidth    int
}

// Comanda renders the HTML receipt handed to the customer at intake.
func (r *Renderer) Comanda(o *domain.ServiceOrder, p domain.PrinterConfig) (*Document, error) {
	body, err := r.renderHTML("comanda.html", r.page(o, p))
	if err != nil {
		return nil, err
	}
	return &Document{
		ContentType: "text/html; charset=utf-8",
		Filename:    fmt.Sprintf("comanda-%s.html", o.Number),
		Body:        body,
	}, nil
}

// StickerHTML renders the label glued to the device.
func (r *Renderer) StickerHTML(o *domain.ServiceOrder, p domain.PrinterConfig) (*Document, error) {
	body, err := r.renderHTML("sticker.html", r.page(o, p))
	if err != nil {
		return nil, err
	}
	return &Document{
		ContentType: "text/html; charset=utf-8",
		Filename:    fmt.Sprintf("sticker-%s.html", o.Number),
		Body:        body,
	}, nil
}

// StickerZPL renders the same label as ZPL for thermal label printers.
func (r *Renderer) StickerZPL(o *domain.ServiceOrder, p domain.PrinterConfig) (*Document, error) {
	var buf bytes.Buffer
	if err := r.zpl.ExecuteTemplate(&buf, "sticker.zpl", r.sticker(o, p)); err != nil {
		return nil, fmt.Errorf("failed to render zpl sticker: %w", err)
	}
	return &Document{
		ContentType: "application/octet-stream",
		Filename:    fmt.Sprintf("sticker-%s.zpl", o.Number),
		Body:        buf.Bytes(),
	}, nil
}

func (r *Renderer) renderHTML(name string, data pageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.html.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) page(o *domain.ServiceOrder, p domain.PrinterConfig) pageData {
	customer := o.Customer
	if customer == nil {
		customer = &domain.Customer{}
	}
	return pageData{
		Shop:       r.shop,
		Order:      o,
		Customer:   customer,
		Printer:    p,
		ReceivedAt: o.CreatedAt.In(r.location).Format("02/01/2006 15:04"),
		Device:     deviceLabel(o),
		Sticker:    r.sticker(o, p),
	}
}

func (r *Renderer) sticker(o *domain.ServiceOrder, p domain.PrinterConfig) stickerData {
	var name, phone string
	if o.Customer != nil {
		name, phone = o.Customer.FullName, o.Customer.Phone
	}
	width := p.PaperWidthMM * dotsPerMM
	return stickerData{
		OrderNumber:  o.Number,
		CustomerName: Truncate(name, StickerNameLimit),
		Phone:        phone,
		Device:       deviceLabel(o),
		Problem:      Truncate(o.ProblemDescription, StickerProblemLimit),
		ReceivedAt:   o.CreatedAt.In(r.location).Format("02/01/2006"),
		WidthDots:    width,
		TextWidth:    width - 40,
	}
}

// Truncate shortens s to at most limit characters and appends an ellipsis
// when anything was cut.
func Truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit])) + ellipsis
}

func deviceLabel(o *domain.ServiceOrder) string {
	parts := []string{o.DeviceType}
	for _, p := range []string{o.Brand, o.Model} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func formatMoney(v *float64) string {
	if v == nil {
		return "Por definir"
	}
	return fmt.Sprintf("$%.2f", *v)
}

var zplReplacer = strings.NewReplacer("_", "_5F", "^", "_5E", "~", "_7E")

// escapeZPL hex-escapes control characters for fields printed with ^FH.
func escapeZPL(s string) string {
	return zplReplacer.Replace(s)
}
