package flow

import (
	"github.com/boma/quote-engine/motor"
)

// Reduce applies an action to a state and returns the next state. The
// input state is never mutated; every map or slice the next state writes
// to is a fresh copy.
func Reduce(st State, action Action) State {
	switch a := action.(type) {
	case SetCurrentStep:
		st.CurrentStep = a.Step
		return st

	case SetCategorySelection:
		return reduceCategorySelection(st, a)

	case UpdateVehicleDetails:
		st = saveForHistory(st)
		st.VehicleDetails = st.VehicleDetails.Merge(a.Fields)
		return st

	case UpdatePricingInputs:
		st = saveForHistory(st)
		st.PricingInputs = st.PricingInputs.Merge(a.Fields)
		return st

	case UpdateClientDetails:
		st = saveForHistory(st)
		st.ClientDetails = st.ClientDetails.Merge(a.Fields)
		return st

	case SetSelectedAddons:
		st = saveForHistory(st)
		st.SelectedAddonIDs = append([]string(nil), a.AddonIDs...)
		return recalculateAddons(st)

	case RecalculateAddons:
		return recalculateAddons(st)

	case SetUnderwriters:
		st.Underwriters = append([]motor.Underwriter(nil), a.Underwriters...)
		return st

	case SetSelectedUnderwriter:
		st.SelectedUnderwriter = a.Underwriter
		return recalculateAddons(st)

	case SetCalculatedPremium:
		st.CalculatedPremium = a.Result
		return st

	case SetPricingComparison:
		st.Comparison = a.Records
		return st

	case SetLoading:
		st.Loading = a.Loading
		return st

	case SetErrors:
		st.Errors = a.Errors
		return st

	case SetValidation:
		st.Validation = a.Validation
		return st

	case Undo:
		return reduceUndo(st)

	case Redo:
		return reduceRedo(st)

	case ResetFlow:
		next := NewState()
		next.SubcategoryFormData = st.SubcategoryFormData
		return next

	default:
		return st
	}
}

// saveForHistory pushes the tracked fields onto the past stack and clears
// the future stack. Every user-entered mutation goes through here.
func saveForHistory(st State) State {
	st.Past = append(append([]Snapshot(nil), st.Past...), st.snapshot())
	st.Future = nil
	return st
}

// reduceCategorySelection applies a category/subcategory choice. A change
// of subcategory swaps the per-subcategory form archive: the outgoing
// forms are stored verbatim and the incoming subcategory's forms are
// restored verbatim, or blanked when it has none. Pricing artifacts are
// scoped to a subcategory, so they are cleared on switch.
func reduceCategorySelection(st State, a SetCategorySelection) State {
	st = saveForHistory(st)

	switching := a.Subcategory != st.SelectedSubcategory
	if switching {
		archive := make(map[string]FormSnapshot, len(st.SubcategoryFormData)+1)
		for k, v := range st.SubcategoryFormData {
			archive[k] = v
		}
		if st.SelectedSubcategory != "" {
			archive[st.SelectedSubcategory] = FormSnapshot{
				VehicleDetails: st.VehicleDetails.Clone(),
				PricingInputs:  st.PricingInputs.Clone(),
			}
		}
		st.SubcategoryFormData = archive

		if restored, ok := archive[a.Subcategory]; ok {
			st.VehicleDetails = restored.VehicleDetails.Clone()
			st.PricingInputs = restored.PricingInputs.Clone()
		} else {
			st.VehicleDetails = motor.Fields{}
			st.PricingInputs = motor.Fields{}
		}

		st.Comparison = nil
		st.SelectedUnderwriter = nil
		st.CalculatedPremium = nil
		st.AddonTotals = nil
	}

	st.SelectedCategory = a.Category
	st.SelectedSubcategory = a.Subcategory
	st.ProductType = a.ProductType
	return st
}

// recalculateAddons reprices the current selection against the current
// vehicle data and underwriter overrides.
func recalculateAddons(st State) State {
	var selected []motor.AddonDefinition
	for _, id := range st.SelectedAddonIDs {
		if def, ok := motor.AddonByID(id); ok {
			selected = append(selected, def)
		}
	}

	vehicle, err := motor.VehicleDataFromFields(st.VehicleDetails.Merge(st.PricingInputs))
	if err != nil {
		st.Errors.General = err.Error()
		vehicle = motor.VehicleData{}
	}

	totals := motor.CalculateTotalAddons(selected, vehicle, st.SelectedUnderwriter)
	st.AddonTotals = &totals
	return st
}

func reduceUndo(st State) State {
	if len(st.Past) == 0 {
		return st
	}
	last := st.Past[len(st.Past)-1]
	st.Future = append(append([]Snapshot(nil), st.Future...), st.snapshot())
	st.Past = append([]Snapshot(nil), st.Past[:len(st.Past)-1]...)
	st.restore(last)
	return st
}

func reduceRedo(st State) State {
	if len(st.Future) == 0 {
		return st
	}
	next := st.Future[len(st.Future)-1]
	st.Past = append(append([]Snapshot(nil), st.Past...), st.snapshot())
	st.Future = append([]Snapshot(nil), st.Future[:len(st.Future)-1]...)
	st.restore(next)
	return st
}
