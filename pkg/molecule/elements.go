// Package molecule provides the atom and bond nodes of a molecular model.
// Both draw kernel meshes into their draw lists; a bond follows its atoms
// by listening to their invalidation events.
package molecule

import "strings"

// Element holds the presentation defaults of a chemical element.
type Element struct {
	Symbol string
	Name   string
	Number int
	Radius float64 // covalent radius in Ångström
	Color  [4]float32
}

var elements = map[string]Element{
	"H":  {Symbol: "H", Name: "hydrogen", Number: 1, Radius: 0.31, Color: [4]float32{1, 1, 1, 1}},
	"C":  {Symbol: "C", Name: "carbon", Number: 6, Radius: 0.76, Color: [4]float32{0.5, 0.5, 0.5, 1}},
	"N":  {Symbol: "N", Name: "nitrogen", Number: 7, Radius: 0.71, Color: [4]float32{0.19, 0.31, 0.97, 1}},
	"O":  {Symbol: "O", Name: "oxygen", Number: 8, Radius: 0.66, Color: [4]float32{1, 0.05, 0.05, 1}},
	"F":  {Symbol: "F", Name: "fluorine", Number: 9, Radius: 0.57, Color: [4]float32{0.56, 0.88, 0.31, 1}},
	"Si": {Symbol: "Si", Name: "silicon", Number: 14, Radius: 1.11, Color: [4]float32{0.94, 0.78, 0.63, 1}},
	"P":  {Symbol: "P", Name: "phosphorus", Number: 15, Radius: 1.07, Color: [4]float32{1, 0.5, 0, 1}},
	"S":  {Symbol: "S", Name: "sulfur", Number: 16, Radius: 1.05, Color: [4]float32{1, 1, 0.19, 1}},
	"Cl": {Symbol: "Cl", Name: "chlorine", Number: 17, Radius: 1.02, Color: [4]float32{0.12, 0.94, 0.12, 1}},
	"Al": {Symbol: "Al", Name: "aluminium", Number: 13, Radius: 1.21, Color: [4]float32{0.75, 0.65, 0.65, 1}},
	"Na": {Symbol: "Na", Name: "sodium", Number: 11, Radius: 1.66, Color: [4]float32{0.67, 0.36, 0.95, 1}},
}

// Unknown is used for symbols missing from the table.
var Unknown = Element{Symbol: "X", Name: "unknown", Radius: 0.75, Color: [4]float32{1, 0.08, 0.58, 1}}

// normalize turns "cl", "CL" and "Cl" into "Cl".
func normalize(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return ""
	}
	return strings.ToUpper(symbol[:1]) + strings.ToLower(symbol[1:])
}

// Lookup returns the element with the given symbol.
func Lookup(symbol string) (Element, bool) {
	e, ok := elements[normalize(symbol)]
	return e, ok
}

// ElementOf returns the element with the given symbol, or Unknown.
func ElementOf(symbol string) Element {
	if e, ok := Lookup(symbol); ok {
		return e
	}
	return Unknown
}
