package api

import (
	"errors"
	"net/http"

	service "github.com/okian/churnrisk/internal/app"
	"github.com/okian/churnrisk/internal/domain/customer"
)

// SchemaProvider describes the form inputs.
type SchemaProvider interface {
	Schema() []customer.Field
}

// SchemaHandler serves the declarative form schema.
type SchemaHandler struct {
	provider SchemaProvider
}

// NewSchemaHandler creates a new schema handler.
func NewSchemaHandler(provider SchemaProvider) *SchemaHandler {
	return &SchemaHandler{provider: provider}
}

type schemaResponse struct {
	Columns []string         `json:"columns"`
	Fields  []customer.Field `json:"fields"`
}

// HandleSchema handles GET /api/v1/schema requests.
func (h *SchemaHandler) HandleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, schemaResponse{
		Columns: customer.Columns(),
		Fields:  h.provider.Schema(),
	})
}

// ModelInfoProvider describes the loaded artifact.
type ModelInfoProvider interface {
	ModelInfo() (service.ModelInfo, error)
}

// ModelHandler serves artifact metadata.
type ModelHandler struct {
	provider ModelInfoProvider
}

// NewModelHandler creates a new model handler.
func NewModelHandler(provider ModelInfoProvider) *ModelHandler {
	return &ModelHandler{provider: provider}
}

// HandleModel handles GET /api/v1/model requests.
func (h *ModelHandler) HandleModel(w http.ResponseWriter, r *http.Request) {
	const op = "api.model"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	info, err := h.provider.ModelInfo()
	if err != nil {
		if errors.Is(err, service.ErrNotStarted) {
			writeError(w, http.StatusServiceUnavailable, "unavailable", NewKind(op, ErrUnavailable))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", NewKind(op, ErrInternal))
		return
	}
	writeJSON(w, http.StatusOK, info)
}
