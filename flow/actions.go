package flow

import (
	"github.com/boma/quote-engine/motor"
	"github.com/boma/quote-engine/pricing"
)

// Action is a state transition request. The concrete types below are the
// whole vocabulary; Reduce ignores anything else.
type Action interface {
	isAction()
}

// SetCurrentStep moves the wizard to a step. Not undoable.
type SetCurrentStep struct {
	Step int
}

// SetCategorySelection records the chosen category, subcategory and product
// type. A subcategory change archives the outgoing forms and restores the
// incoming subcategory's archived forms. Undoable.
type SetCategorySelection struct {
	Category    string
	Subcategory string
	ProductType string
}

// UpdateVehicleDetails merges fields into the vehicle form. Undoable.
type UpdateVehicleDetails struct {
	Fields motor.Fields
}

// UpdatePricingInputs merges fields into the pricing form. Undoable.
type UpdatePricingInputs struct {
	Fields motor.Fields
}

// UpdateClientDetails merges fields into the client form. Undoable.
type UpdateClientDetails struct {
	Fields motor.Fields
}

// SetSelectedAddons replaces the add-on selection and recalculates totals
// against the current vehicle data and underwriter. Undoable.
type SetSelectedAddons struct {
	AddonIDs []string
}

// RecalculateAddons reprices the current selection, typically after an
// underwriter change. Not undoable.
type RecalculateAddons struct{}

// SetUnderwriters replaces the underwriter list. Not undoable.
type SetUnderwriters struct {
	Underwriters []motor.Underwriter
}

// SetSelectedUnderwriter records the chosen underwriter and reprices the
// add-on selection under its overrides. Not undoable.
type SetSelectedUnderwriter struct {
	Underwriter *motor.Underwriter
}

// SetCalculatedPremium commits a normalized premium result. Not undoable.
type SetCalculatedPremium struct {
	Result *motor.PricingResult
}

// SetPricingComparison commits ranked comparison records. Not undoable.
type SetPricingComparison struct {
	Records []pricing.ComparisonRecord
}

// SetLoading flips one loading flag.
type SetLoading struct {
	Loading Loading
}

// SetErrors replaces the error slots.
type SetErrors struct {
	Errors Errors
}

// SetValidation replaces the field validation result.
type SetValidation struct {
	Validation motor.FieldErrors
}

// Undo restores the most recent past snapshot. No-op when history is empty.
type Undo struct{}

// Redo reapplies the most recently undone snapshot. No-op when empty.
type Redo struct{}

// ResetFlow returns to the initial state. The per-subcategory form archive
// survives the reset.
type ResetFlow struct{}

func (SetCurrentStep) isAction()         {}
func (SetCategorySelection) isAction()   {}
func (UpdateVehicleDetails) isAction()   {}
func (UpdatePricingInputs) isAction()    {}
func (UpdateClientDetails) isAction()    {}
func (SetSelectedAddons) isAction()      {}
func (RecalculateAddons) isAction()      {}
func (SetUnderwriters) isAction()        {}
func (SetSelectedUnderwriter) isAction() {}
func (SetCalculatedPremium) isAction()   {}
func (SetPricingComparison) isAction()   {}
func (SetLoading) isAction()             {}
func (SetErrors) isAction()              {}
func (SetValidation) isAction()          {}
func (Undo) isAction()                   {}
func (Redo) isAction()                   {}
func (ResetFlow) isAction()              {}
