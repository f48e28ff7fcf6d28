// Package field implements coordination fields: decaying measurement vectors
// that modules publish into a shared region and sample from their neighbors.
package field

import (
	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/fixed"
)

// Component names one scalar of a field.
type Component int

// All the field components.
const (
	Load Component = iota
	Thermal
	Power
	Custom0
	Custom1
)

// AllComponents lists every component in the order gradients are reported.
var AllComponents = [core.FieldCount]Component{
	Load, Thermal, Power, Custom0, Custom1,
}

func (c Component) String() string {
	switch c {
	case Load:
		return "Load"
	case Thermal:
		return "Thermal"
	case Power:
		return "Power"
	case Custom0:
		return "Custom0"
	case Custom1:
		return "Custom1"
	default:
		return "Invalid"
	}
}

// Vector holds one value per component.
type Vector [core.FieldCount]fixed.Fixed

// A Field is the measurement vector a module publishes, plus provenance.
type Field struct {
	Components Vector
	Timestamp  core.TimeUs
	Source     core.ModuleID
	Sequence   uint8
}

// WithValues creates an unpublished field with the load, thermal and power
// components set.
func WithValues(load, thermal, power fixed.Fixed) Field {
	f := Field{}
	f.Components[Load] = load
	f.Components[Thermal] = thermal
	f.Components[Power] = power

	return f
}

// Get returns the value of one component.
func (f Field) Get(c Component) fixed.Fixed {
	return f.Components[c]
}

// Set updates the value of one component.
func (f *Field) Set(c Component, v fixed.Fixed) {
	f.Components[c] = v
}

// Published reports whether the field carries data from a module.
func (f Field) Published() bool {
	return f.Source != core.InvalidModuleID
}

// IsValid reports whether the field is published and younger than maxAge.
func (f Field) IsValid(now, maxAge core.TimeUs) bool {
	return f.Published() && core.SaturatingSub(now, f.Timestamp) < maxAge
}

// Clear resets the field to the empty state.
func (f *Field) Clear() {
	*f = Field{}
}

// Add returns the component-wise sum of f and o. Provenance is kept from f.
func (f Field) Add(o Field) Field {
	r := f
	for i := range r.Components {
		r.Components[i] = r.Components[i].SaturatingAdd(o.Components[i])
	}

	return r
}

// Scale returns f with every component multiplied by factor.
func (f Field) Scale(factor fixed.Fixed) Field {
	r := f
	for i := range r.Components {
		r.Components[i] = r.Components[i].SaturatingMul(factor)
	}

	return r
}

// Lerp returns f*(1-t) + o*t component-wise, as an unpublished field.
func (f Field) Lerp(o Field, t fixed.Fixed) Field {
	r := Field{}
	oneMinusT := fixed.One.SaturatingSub(t)

	for i := range r.Components {
		a := f.Components[i].SaturatingMul(oneMinusT)
		b := o.Components[i].SaturatingMul(t)
		r.Components[i] = a.SaturatingAdd(b)
	}

	return r
}
