// Package geometry maps between a page's normal coordinate system and the
// rotated coordinate system used to tile a watermark across it.
//
// All values are PDF points (1/72 inch). Conversions from physical units are
// done once, at the boundary, with the From* helpers.
package geometry

// Length is a page-coordinate scalar measured in points.
type Length = float64

const (
	pointsPerInch = 72.0
	cmPerInch     = 2.54
)

// FromInches converts a measurement in inches to points.
func FromInches(inches float64) Length {
	return inches * pointsPerInch
}

// FromCentimeters converts a measurement in centimeters to points.
func FromCentimeters(cm float64) Length {
	return FromInches(cm / cmPerInch)
}

// FromMillimeters converts a measurement in millimeters to points.
func FromMillimeters(mm float64) Length {
	return FromCentimeters(mm / 10)
}

// Inches converts points to inches.
func Inches(l Length) float64 {
	return l / pointsPerInch
}

// Centimeters converts points to centimeters.
func Centimeters(l Length) float64 {
	return Inches(l) * cmPerInch
}

// Millimeters converts points to millimeters.
func Millimeters(l Length) float64 {
	return Centimeters(l) * 10
}
