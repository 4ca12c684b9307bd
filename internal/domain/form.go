package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Control selects how a field is rendered.
type Control string

const (
	ControlNumber Control = "number"
	ControlSlider Control = "slider"
	ControlText   Control = "text"
)

// FormField describes one input control of the predict form.
// Min, Max and Default only apply to integer controls.
type FormField struct {
	Name        string
	Label       string
	Control     Control
	Min         int
	Max         int
	Default     int
	Placeholder string
	Column      int
}

func (f FormField) IsInteger() bool { return f.Control != ControlText }

// Clamp pins v into the field bounds, as the range-constrained control would.
func (f FormField) Clamp(v int) int {
	if v < f.Min {
		return f.Min
	}
	if v > f.Max {
		return f.Max
	}
	return v
}

// Feature names the form collects.
const (
	FieldGrLivArea    = "GrLivArea"
	FieldOverallQual  = "OverallQual"
	FieldGarageCars   = "GarageCars"
	FieldYearBuilt    = "YearBuilt"
	FieldTotalBsmtSF  = "TotalBsmtSF"
	FieldFullBath     = "FullBath"
	FieldNeighborhood = "Neighborhood"
	FieldHouseStyle   = "HouseStyle"
)

// FormFields lists the controls in display order, split over two columns.
var FormFields = []FormField{
	{Name: FieldGrLivArea, Label: "Above-ground living area (sq ft)", Control: ControlNumber, Min: 100, Max: 10000, Default: 1500, Column: 1},
	{Name: FieldOverallQual, Label: "Overall Quality (1–10)", Control: ControlSlider, Min: 1, Max: 10, Default: 5, Column: 1},
	{Name: FieldGarageCars, Label: "Garage Capacity (cars)", Control: ControlSlider, Min: 0, Max: 5, Default: 2, Column: 1},
	{Name: FieldYearBuilt, Label: "Year Built", Control: ControlNumber, Min: 1800, Max: 2025, Default: 2000, Column: 1},
	{Name: FieldTotalBsmtSF, Label: "Total Basement Area (sq ft)", Control: ControlNumber, Min: 0, Max: 5000, Default: 900, Column: 2},
	{Name: FieldFullBath, Label: "Full Bathrooms", Control: ControlSlider, Min: 0, Max: 5, Default: 2, Column: 2},
	{Name: FieldNeighborhood, Label: "Neighborhood (e.g., NAmes, CollgCr)", Control: ControlText, Placeholder: "NAmes", Column: 2},
	{Name: FieldHouseStyle, Label: "House Style (e.g., 1Story, 2Story)", Control: ControlText, Placeholder: "1Story", Column: 2},
}

// Input is the current state of the eight form controls.
type Input struct {
	GrLivArea    int    `json:"GrLivArea"`
	OverallQual  int    `json:"OverallQual"`
	GarageCars   int    `json:"GarageCars"`
	YearBuilt    int    `json:"YearBuilt"`
	TotalBsmtSF  int    `json:"TotalBsmtSF"`
	FullBath     int    `json:"FullBath"`
	Neighborhood string `json:"Neighborhood"`
	HouseStyle   string `json:"HouseStyle"`
}

// DefaultInput returns the controls' initial values.
func DefaultInput() Input {
	in := Input{}
	for _, f := range FormFields {
		if f.IsInteger() {
			in.setInt(f.Name, f.Default)
		}
	}
	return in
}

// Int returns the value of an integer control.
func (in Input) Int(name string) int {
	switch name {
	case FieldGrLivArea:
		return in.GrLivArea
	case FieldOverallQual:
		return in.OverallQual
	case FieldGarageCars:
		return in.GarageCars
	case FieldYearBuilt:
		return in.YearBuilt
	case FieldTotalBsmtSF:
		return in.TotalBsmtSF
	case FieldFullBath:
		return in.FullBath
	}
	return 0
}

// Text returns the value of a text control.
func (in Input) Text(name string) string {
	switch name {
	case FieldNeighborhood:
		return in.Neighborhood
	case FieldHouseStyle:
		return in.HouseStyle
	}
	return ""
}

func (in *Input) setInt(name string, v int) {
	switch name {
	case FieldGrLivArea:
		in.GrLivArea = v
	case FieldOverallQual:
		in.OverallQual = v
	case FieldGarageCars:
		in.GarageCars = v
	case FieldYearBuilt:
		in.YearBuilt = v
	case FieldTotalBsmtSF:
		in.TotalBsmtSF = v
	case FieldFullBath:
		in.FullBath = v
	}
}

func (in *Input) setText(name, v string) {
	switch name {
	case FieldNeighborhood:
		in.Neighborhood = v
	case FieldHouseStyle:
		in.HouseStyle = v
	}
}

// Clamped returns a copy with every integer control pinned to its bounds.
func (in Input) Clamped() Input {
	out := in
	for _, f := range FormFields {
		if f.IsInteger() {
			out.setInt(f.Name, f.Clamp(in.Int(f.Name)))
		}
	}
	return out
}

// FieldErrors maps a field name to a message shown beside its control.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, f := range FormFields {
		if msg, ok := fe[f.Name]; ok {
			parts = append(parts, f.Name+": "+msg)
		}
	}
	return "invalid form input: " + strings.Join(parts, "; ")
}

// ParseInput decodes raw control values. Missing integer fields keep their
// default, out of range values (including ones too large for an int) are
// clamped and non-integers are reported.
// Text fields are taken verbatim.
func ParseInput(get func(name string) (string, bool)) (Input, error) {
	in := DefaultInput()
	errs := FieldErrors{}
	for _, f := range FormFields {
		raw, ok := get(f.Name)
		if !ok {
			continue
		}
		if !f.IsInteger() {
			in.setText(f.Name, raw)
			continue
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		// Atoi saturates on overflow, which Clamp then pins to a bound.
		v, err := strconv.Atoi(raw)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			errs[f.Name] = fmt.Sprintf("%q is not a whole number", raw)
			continue
		}
		in.setInt(f.Name, f.Clamp(v))
	}
	if len(errs) > 0 {
		return in, errs
	}
	return in, nil
}

// Patch emits the eight form fields as feature values.
func (in Input) Patch() Patch {
	p := make(Patch, len(FormFields))
	for _, f := range FormFields {
		if f.IsInteger() {
			p[f.Name] = Numeric(float64(in.Int(f.Name)))
		} else {
			p[f.Name] = Categorical(in.Text(f.Name))
		}
	}
	return p
}
