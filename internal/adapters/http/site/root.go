// Package site serves the HTML churn form.
package site

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	service "github.com/okian/churnrisk/internal/app"
	"github.com/okian/churnrisk/internal/domain/customer"
	"github.com/okian/churnrisk/internal/domain/prediction"
	"github.com/okian/churnrisk/pkg/logger"
)

// Error constants
var (
	ErrRender = errors.New("form render failed")
	ErrServe  = errors.New("form serve failed")
)

const maxFormBody = 64 << 10

// Dependencies required by the form.
type Dependencies interface {
	Predict(ctx context.Context, rec customer.Record) (service.Prediction, error)
	Schema() []customer.Field
}

// Register attaches the form routes to mux.
func Register(mux *http.ServeMux, deps Dependencies) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/", NewRootHandler(deps).HandleRoot)
}

// RootHandler handles the form page.
type RootHandler struct {
	deps Dependencies
}

// NewRootHandler creates a new root handler.
func NewRootHandler(deps Dependencies) *RootHandler {
	return &RootHandler{deps: deps}
}

type fieldView struct {
	Name    string
	Label   string
	Choices []string
	Min     string
	Max     string
	Step    string
	Value   string
}

type pageView struct {
	Columns [][]fieldView
	Result  *prediction.Result
	Error   string
}

// HandleRoot renders the empty form on GET and the form plus a verdict on
// POST. Any other path is not found.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.render(w, r, http.StatusOK, pageView{Columns: h.columns(nil)})
	case http.MethodPost:
		h.submit(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (h *RootHandler) submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, pageView{Columns: h.columns(nil), Error: "Error: could not read the form."})
		return
	}

	page := pageView{Columns: h.columns(r.PostForm)}

	rec, err := customer.FromValues(r.PostForm)
	if err != nil {
		page.Error = "Error: " + err.Error()
		h.render(w, r, http.StatusBadRequest, page)
		return
	}

	res, err := h.deps.Predict(r.Context(), rec)
	switch {
	case err == nil:
		page.Result = &res.Result
		h.render(w, r, http.StatusOK, page)
	case errors.Is(err, customer.ErrInvalidRecord):
		page.Error = "Error: " + err.Error()
		h.render(w, r, http.StatusBadRequest, page)
	case errors.Is(err, prediction.ErrInvalidModel):
		page.Error = prediction.InvalidModelMessage
		h.render(w, r, http.StatusOK, page)
	default:
		page.Error = "Error: the prediction could not be made."
		h.render(w, r, http.StatusInternalServerError, page)
	}
}

// columns lays the schema out in its form columns, filling values from the
// submission when present.
func (h *RootHandler) columns(values url.Values) [][]fieldView {
	var cols [][]fieldView
	for _, f := range h.deps.Schema() {
		for len(cols) <= f.Column {
			cols = append(cols, nil)
		}
		v := fieldView{Name: f.Name, Label: f.Label, Choices: f.Choices, Value: f.Default}
		if !f.Categorical() && len(f.Choices) == 0 {
			v.Min = strconv.FormatFloat(f.Min, 'f', -1, 64)
			v.Max = strconv.FormatFloat(f.Max, 'f', -1, 64)
			v.Step = strconv.FormatFloat(f.Step, 'f', -1, 64)
		}
		if submitted, ok := values[f.Name]; ok && len(submitted) > 0 {
			v.Value = submitted[0]
		}
		cols[f.Column] = append(cols[f.Column], v)
	}
	return cols
}

func (h *RootHandler) render(w http.ResponseWriter, r *http.Request, status int, page pageView) {
	var buf bytes.Buffer
	if err := formTemplate.Execute(&buf, page); err != nil {
		logger.Get().Error(r.Context(), "render form", logger.Error(errors.Join(ErrRender, err)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Get().Debug(r.Context(), "write form", logger.Error(errors.Join(ErrServe, err)))
	}
}
