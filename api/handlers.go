/*
handlers.go - HTTP API handlers for the motor quotation flow

PURPOSE:
  Exposes the quotation journey via REST API. Each session owns one flow
  controller; handlers parse HTTP, dispatch into the controller, and
  serialize the resulting state.

ENDPOINTS:
  Sessions:
    POST   /api/sessions                          Create a journey session
    GET    /api/sessions/{id}                     Current state
    DELETE /api/sessions/{id}                     Drop the session

  Journey:
    POST   /api/sessions/{id}/selection           Category/subcategory choice
    POST   /api/sessions/{id}/vehicle             Patch vehicle form
    POST   /api/sessions/{id}/pricing-inputs      Patch pricing form
    POST   /api/sessions/{id}/client              Patch client form
    POST   /api/sessions/{id}/step                Move wizard step
    POST   /api/sessions/{id}/undo                Undo last form change
    POST   /api/sessions/{id}/redo                Redo
    POST   /api/sessions/{id}/reset               Reset the journey

  Pricing:
    POST   /api/sessions/{id}/premium             Request debounced calculation
    POST   /api/sessions/{id}/premium/now         Calculate immediately
    POST   /api/sessions/{id}/comparison          Compare underwriters
    GET    /api/sessions/{id}/underwriters        Load underwriter panel
    POST   /api/sessions/{id}/underwriter         Select an underwriter
    POST   /api/sessions/{id}/submit              Submit the quotation

  Add-ons:
    GET    /api/addons                            Full catalog
    GET    /api/sessions/{id}/addons              Applicable add-ons
    POST   /api/sessions/{id}/addons              Replace selection

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid body, unknown references
  - 404: Session not found
  - 502: Upstream failures during comparison/submission

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - flow/controller.go: The per-session state machine
*/
package api

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/boma/quote-engine/flow"
	"github.com/boma/quote-engine/motor"
	"github.com/boma/quote-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	newController func() *flow.Controller

	// Quotations is optional; when present, submitted quotations are logged.
	Quotations *sqlite.Store

	mu       sync.RWMutex
	sessions map[string]*flow.Controller
}

// NewHandler creates a handler. newController is invoked once per session.
func NewHandler(newController func() *flow.Controller) *Handler {
	return &Handler{
		newController: newController,
		sessions:      make(map[string]*flow.Controller),
	}
}

func (h *Handler) session(r *http.Request) (*flow.Controller, bool) {
	id := chi.URLParam(r, "id")
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.sessions[id]
	return c, ok
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

// CreateSession starts a new quotation journey.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()

	h.mu.Lock()
	h.sessions[id] = h.newController()
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, SessionResponse{SessionID: id})
}

// GetState returns the session's current journey state.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toStateDTO(c.State()))
}

// DeleteSession drops a session and stops its pending work.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.mu.Lock()
	c, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Session not found", nil)
		return
	}
	c.Close()
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// JOURNEY ACTIONS
// =============================================================================

// UpdateSelection sets the category/subcategory/product choice.
func (h *Handler) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found", nil)
		return
	}

	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	st := c.Dispatch(flow.SetCategorySelection{
		Category:    req.Category,
		Subcategory: req.Subcategory,
		ProductType: req.ProductType,
	})
	writeJSON(w, http.StatusOK, toStateDTO(st))
}

// UpdateVehicle patches the vehicle form.
func (h *Handler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	h.patchForm(w, r, func(fields motor.Fields) flow.Action {
		return flow.UpdateVehicleDetails{Fields: fields}
	})
}

// UpdatePricingInputs patches the pricing form.
func (h *Handler) UpdatePricingInputs(w http.ResponseWriter, r *http.Request) {
	h.patchForm(w, r, func(fields motor.Fields) flow.Action {
		return flow.UpdatePricingInputs{Fields: fields}
	})
}

// UpdateClient patches the client form.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	h.patchForm(w, r, func(fields motor.Fields) flow.Action {
		return flow.UpdateClientDetails{Fields: fields}
	})
}

func (h *Handler) patchForm(w http.ResponseWriter, r *http.Request, action func(motor.Fields) flow.Action) {
	c, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found", nil)
		return
	}

	var req FieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Fields) == 0 {
		writeError(w, http.StatusBadRequest, "No fields supplied", nil)
		return
	}

	st := c.Dispatch(action(motor.Fields(req.Fields)))
	writeJSON(w, http.StatusOK, toStateDTO(st))
}

// SetStep moves the wizard to a step.
func (h *Handler) SetStep(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found", nil)
		return
	}

	var req StepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	st := c.Dispatch(flow.SetCurrentStep{Step: req.Step})
	writeJSON(w, http.StatusOK, toStateDTO(st))
}

// Undo reverses the last form change.
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	h.simpleAction(w, r, flow.Undo{})
}

// Redo reapplies the last undone change.
func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	h.simpleAction(w, r, flow.Redo{})
}

// Reset returns the journey to its initial state.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.simpleAction(w, r, flow.ResetFlow{})
}

func (h *Handler) simpleAction(w http.ResponseWriter, r *http.Request, action flow.Action) {
	c, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toStateDTO(c.Dispatch(action)))
}

// =============================================================================
// PRICING
// =============================================================================

// RequestPremium schedules the debounced premium calculation.
func (h *Handler) RequestPremium(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found", nil)
		return
	}

	c.RequestPremiumCalculation()
	writeJSON(w, http.StatusAccepted, toStateDTO(c.State()))
}

// CalculatePremiumNow runs the calculation synchronously.
func (h *Handler) CalculatePremiumNow(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found", nil)
		return
	}

	c.CalculatePremiumNow(r.Context())
	writeJSON(w, http.StatusOK, toStateDTO(c.State()))
}

// Compare runs the underwriter comparison for the current subcategory.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found", nil)
		return
	}

	if _, err := c.ComparePricing(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "Comparison failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toStateDTO(c.State()))
}

// LoadUnderwriters returns the panel for the current selection.
func (h *Handler) LoadUnderwriters(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found", nil)
		return
	}

	uws := c.LoadUnderwriters(r.Context())
	dtos := make([]UnderwriterDTO, len(uws))
	for i, u := range uws {
		dtos[i] = toUnderwriterDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SelectUnderwriter picks an underwriter from the loaded panel.
func (h *Handler) SelectUnderwriter(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found", nil)
		return
	}

	var req SelectUnderwriterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var selected *motor.Underwriter
	for _, u := range c.State().Underwriters {
		if u.Code == req.UnderwriterCode {
			uw := u
			selected = &uw
			break
		}
	}
	if selected == nil {
		writeError(w, http.StatusBadRequest, "Underwriter not in loaded panel", nil)
		return
	}

	st := c.Dispatch(flow.SetSelectedUnderwriter{Underwriter: selected})
	writeJSON(w, http.StatusOK, toStateDTO(st))
}

// Submit forwards the composed quotation upstream and logs it.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found", nil)
		return
	}

	ack, err := c.SubmitQuotation(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "Quotation submission failed", err)
		return
	}

	if h.Quotations != nil {
		st := c.State()
		payload, _ := json.Marshal(toStateDTO(st))
		record := sqlite.QuotationRecord{
			ID:              uuid.NewString(),
			SessionID:       chi.URLParam(r, "id"),
			SubcategoryCode: st.SelectedSubcategory,
			Reference:       ack.Reference,
			PayloadJSON:     string(payload),
		}
		if st.SelectedUnderwriter != nil {
			record.UnderwriterID = st.SelectedUnderwriter.Code
		}
		if err := h.Quotations.SaveQuotation(r.Context(), record); err != nil {
			// The quotation already reached the backend; the local log is
			// best effort.
			writeJSON(w, http.StatusOK, ack)
			return
		}
	}
	writeJSON(w, http.StatusOK, ack)
}

// =============================================================================
// ADD-ONS
// =============================================================================

// GetAddonCatalog returns the full standard add-on catalog.
func (h *Handler) GetAddonCatalog(w http.ResponseWriter, r *http.Request) {
	catalog := motor.StandardAddons()
	dtos := make([]AddonDTO, len(catalog))
	for i, a := range catalog {
		dtos[i] = toAddonDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetApplicableAddons returns the add-ons applicable to the session's
// product and vehicle.
func (h *Handler) GetApplicableAddons(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found", nil)
		return
	}

	st := c.State()
	vehicle, err := motor.VehicleDataFromFields(st.VehicleDetails.Merge(st.PricingInputs))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid vehicle data", err)
		return
	}

	applicable := motor.ApplicableAddons(motor.NormalizeCoverType(st.ProductType), vehicle)
	dtos := make([]AddonDTO, len(applicable))
	for i, a := range applicable {
		dtos[i] = toAddonDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SelectAddons replaces the add-on selection and returns the repriced
// state.
func (h *Handler) SelectAddons(w http.ResponseWriter, r *http.Request) {
	c, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found", nil)
		return
	}

	var req AddonSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	for _, id := range req.AddonIDs {
		if _, ok := motor.AddonByID(id); !ok {
			writeError(w, http.StatusBadRequest, "Unknown add-on: "+id, nil)
			return
		}
	}

	st := c.Dispatch(flow.SetSelectedAddons{AddonIDs: req.AddonIDs})
	writeJSON(w, http.StatusOK, toStateDTO(st))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
