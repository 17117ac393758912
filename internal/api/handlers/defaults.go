package handlers

import (
	"net/http"

	"github.com/facturier/facturier/internal/config"
	"github.com/facturier/facturier/internal/extract"
	"github.com/facturier/facturier/internal/i18n"
)

// DefaultsHandler serves the issuer defaults clients prefill forms with.
type DefaultsHandler struct {
	render config.RenderConfig
}

// NewDefaultsHandler creates a new defaults handler.
func NewDefaultsHandler(render config.RenderConfig) *DefaultsHandler {
	return &DefaultsHandler{render: render}
}

// DefaultsDTO is the defaults response.
type DefaultsDTO struct {
	CompanyName string   `json:"company_name"`
	FromAddress []string `json:"from_address"`
	Languages   []string `json:"languages"`
	Modes       []string `json:"modes"`
}

// Defaults handles GET /api/v1/defaults.
func (h *DefaultsHandler) Defaults(w http.ResponseWriter, r *http.Request) {
	fromAddress := h.render.FromAddress
	if fromAddress == nil {
		fromAddress = []string{}
	}

	writeJSON(w, http.StatusOK, DefaultsDTO{
		CompanyName: h.render.CompanyName,
		FromAddress: fromAddress,
		Languages:   i18n.Codes(),
		Modes:       []string{string(extract.ModeInvoice), string(extract.ModeEstimate)},
	})
}
