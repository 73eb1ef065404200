package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

type ConnectionType string

const (
	ConnectionBrowser ConnectionType = "browser"
	ConnectionNetwork ConnectionType = "network"
	ConnectionUSB     ConnectionType = "usb"
)

// PrinterConfig is a per-user printer setting kept in the key-value store.
type PrinterConfig struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	ConnectionType ConnectionType `json:"connection_type"`
	Address        string         `json:"address,omitempty"`
	PaperWidthMM   int            `json:"paper_width_mm"`
	FontFamily     string         `json:"font_family"`
	FontSize       int            `json:"font_size"`
	IsDefault      bool           `json:"is_default"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Font family lists end up in a <style> block; quotes and other CSS syntax are
// not allowed there, so names are stored unquoted.
var fontFamilyPattern = regexp.MustCompile(`^[A-Za-z0-9 ,-]{1,60}$`)

var fontQuotes = strings.NewReplacer(`"`, "", "'", "")

// DefaultPrinterConfig is used when the user has not configured a printer.
func DefaultPrinterConfig() PrinterConfig {
	return PrinterConfig{
		ID:             "default",
		Name:           "Navegador",
		ConnectionType: ConnectionBrowser,
		PaperWidthMM:   80,
		FontFamily:     "monospace",
		FontSize:       12,
		IsDefault:      true,
	}
}

// Validate applies business validation rules
func (p *PrinterConfig) Validate() error {
	if n := utf8.RuneCountInString(strings.TrimSpace(p.Name)); n < 1 || n > 60 {
		return invalid("name", "name must be 1-60 characters")
	}
	switch p.ConnectionType {
	case ConnectionBrowser, ConnectionUSB:
	case ConnectionNetwork:
		if strings.TrimSpace(p.Address) == "" {
			return invalid("address", "address is required for network printers")
		}
	default:
		return invalid("connection_type", "connection type must be one of: browser, network, usb")
	}
	if p.PaperWidthMM != 58 && p.PaperWidthMM != 80 {
		return invalid("paper_width_mm", "paper width must be 58 or 80")
	}
	if p.FontSize < 6 || p.FontSize > 32 {
		return invalid("font_size", "font size must be 6-32")
	}
	p.FontFamily = strings.TrimSpace(fontQuotes.Replace(p.FontFamily))
	if p.FontFamily == "" {
		p.FontFamily = "monospace"
	}
	if !fontFamilyPattern.MatchString(p.FontFamily) {
		return invalid("font_family", "font family may contain only letters, digits, spaces, commas and hyphens")
	}
	return nil
}
