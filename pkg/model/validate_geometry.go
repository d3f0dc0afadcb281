package model

import (
	"github.com/chazu/zeo/pkg/molecule"
)

// LongBondFactor is how many times the sum of the atom radii a bond may
// span before it is reported.
const LongBondFactor = 3.0

// validateGeometry runs the geometric checks. Coincident atoms are errors;
// the rest are warnings.
func validateGeometry(m *Model) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateElements(m)...)
	errs = append(errs, validateBondLengths(m)...)
	return errs
}

// validateElements warns about atoms whose symbol is not in the element
// table.
func validateElements(m *Model) []ValidationError {
	var errs []ValidationError
	for _, a := range m.Atoms() {
		if a.Element() == molecule.Unknown {
			errs = append(errs, m.finding(a, SeverityWarning, "unknown element"))
		}
	}
	return errs
}

// validateBondLengths reports bonds that cannot be drawn or look wrong.
func validateBondLengths(m *Model) []ValidationError {
	var errs []ValidationError
	for _, b := range m.Bonds() {
		d := b.Dimensions()
		sum := b.Begin().Radius() + b.End().Radius()
		switch {
		case d.Length == 0:
			errs = append(errs, m.finding(b, SeverityError, "atoms %q and %q coincide", b.Begin().Name(), b.End().Name()))
		case d.HalfLength() <= 0 || d.BeginRadius+d.EndRadius <= 0:
			errs = append(errs, m.finding(b, SeverityWarning, "atoms overlap too much to draw the bond (length %.4f)", d.Length))
		case d.Length > LongBondFactor*sum:
			errs = append(errs, m.finding(b, SeverityWarning, "bond length %.4f exceeds %.1f times the atom radii", d.Length, LongBondFactor))
		}
	}
	return errs
}
