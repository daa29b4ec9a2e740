/*
Package flow is the quotation wizard's state machine.

PURPOSE:
  Holds every piece of state the quotation journey accumulates: category
  selection, vehicle and pricing form fields, client details, add-on
  selection, underwriter and comparison results. State changes flow through
  a pure reducer; side effects (debounced calculation, caching, upstream
  calls) live in the Controller.

KEY CONCEPTS:
  Reducer:    Reduce(state, action) returns a new state. The input state is
              never mutated; forms are cloned on write.
  History:    actions that change user-entered fields push a snapshot of
              those fields onto the past stack and clear the future stack.
              Undo and Redo move snapshots between the stacks.
  Isolation:  each subcategory keeps its own vehicle/pricing form data.
              Switching subcategories archives the outgoing forms and
              restores (or blanks) the incoming ones, verbatim.

DESIGN PRINCIPLES:
  - Only user-entered fields participate in history. Derived data
    (premium, comparison, underwriter list) is recomputed, not undone.
  - Reset keeps the per-subcategory archive so returning to a subcategory
    after a reset still restores its forms.

SEE ALSO:
  - actions.go:    the action vocabulary
  - reducer.go:    the transition function
  - controller.go: debounce, caching, upstream orchestration
*/
package flow

import (
	"github.com/boma/quote-engine/motor"
	"github.com/boma/quote-engine/pricing"
)

// =============================================================================
// STATE
// =============================================================================

// Loading tracks which asynchronous operations are in flight.
type Loading struct {
	Pricing      bool `json:"pricing"`
	Comparison   bool `json:"comparison"`
	Underwriters bool `json:"underwriters"`
	Submit       bool `json:"submit"`
}

// Errors holds the last failure per concern. Empty string means none.
type Errors struct {
	General    string `json:"general,omitempty"`
	Pricing    string `json:"pricing,omitempty"`
	Comparison string `json:"comparison,omitempty"`
	Submit     string `json:"submit,omitempty"`
}

// FormSnapshot is the per-subcategory archive of user-entered forms.
type FormSnapshot struct {
	VehicleDetails motor.Fields `json:"vehicle_details"`
	PricingInputs  motor.Fields `json:"pricing_inputs"`
}

// Snapshot captures the undoable fields at one point in time.
type Snapshot struct {
	SelectedCategory    string
	SelectedSubcategory string
	ProductType         string
	VehicleDetails      motor.Fields
	PricingInputs       motor.Fields
	ClientDetails       motor.Fields
	SelectedAddonIDs    []string
}

// State is the full quotation journey state.
type State struct {
	CurrentStep int

	SelectedCategory    string
	SelectedSubcategory string
	ProductType         string

	VehicleDetails motor.Fields
	PricingInputs  motor.Fields
	ClientDetails  motor.Fields

	SelectedAddonIDs []string
	AddonTotals      *motor.TotalAddonsCalculation

	Underwriters        []motor.Underwriter
	SelectedUnderwriter *motor.Underwriter
	CalculatedPremium   *motor.PricingResult
	Comparison          []pricing.ComparisonRecord

	SubcategoryFormData map[string]FormSnapshot

	Validation motor.FieldErrors
	Loading    Loading
	Errors     Errors

	Past   []Snapshot
	Future []Snapshot
}

// NewState returns the initial journey state.
func NewState() State {
	return State{
		VehicleDetails:      motor.Fields{},
		PricingInputs:       motor.Fields{},
		ClientDetails:       motor.Fields{},
		SubcategoryFormData: map[string]FormSnapshot{},
	}
}

// snapshot captures the tracked fields with cloned forms.
func (s State) snapshot() Snapshot {
	return Snapshot{
		SelectedCategory:    s.SelectedCategory,
		SelectedSubcategory: s.SelectedSubcategory,
		ProductType:         s.ProductType,
		VehicleDetails:      s.VehicleDetails.Clone(),
		PricingInputs:       s.PricingInputs.Clone(),
		ClientDetails:       s.ClientDetails.Clone(),
		SelectedAddonIDs:    append([]string(nil), s.SelectedAddonIDs...),
	}
}

// restore applies a snapshot's tracked fields to the state.
func (s *State) restore(snap Snapshot) {
	s.SelectedCategory = snap.SelectedCategory
	s.SelectedSubcategory = snap.SelectedSubcategory
	s.ProductType = snap.ProductType
	s.VehicleDetails = snap.VehicleDetails.Clone()
	s.PricingInputs = snap.PricingInputs.Clone()
	s.ClientDetails = snap.ClientDetails.Clone()
	s.SelectedAddonIDs = append([]string(nil), snap.SelectedAddonIDs...)
}

// CanUndo reports whether an Undo action would change state.
func (s State) CanUndo() bool { return len(s.Past) > 0 }

// CanRedo reports whether a Redo action would change state.
func (s State) CanRedo() bool { return len(s.Future) > 0 }
