package geometry

import "math"

// Point is a position in page space or rotated space.
type Point struct {
	X, Y Length
}

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// NormalizeDegrees maps any finite angle into (-180, 180].
func NormalizeDegrees(degrees float64) float64 {
	d := math.Mod(degrees, 360)
	switch {
	case d > 180:
		d -= 360
	case d <= -180:
		d += 360
	}
	return d
}

// projection is the isometry from normal space into rotated space: a
// rotation by -theta followed by a vertical shift of pageWidth*sin(theta),
// which moves the lowest corner of a rotated page onto y = 0.
func projection(theta float64, pageWidth Length) Matrix {
	rad := Radians(theta)
	return Rotate(-rad).Multiply(Translate(0, pageWidth*math.Sin(rad)))
}

// ToRotated maps a point from the page's normal coordinate system into
// rotated space.
func ToRotated(theta float64, pageWidth Length, p Point) Point {
	return projection(theta, pageWidth).Apply(p)
}

// FromRotated is the exact inverse of ToRotated.
func FromRotated(theta float64, pageWidth Length, p Point) Point {
	rad := Radians(theta)
	back := Translate(0, -pageWidth*math.Sin(rad)).Multiply(Rotate(rad))
	return back.Apply(p)
}

// TileGrid returns how many tiles of the given size are needed, per axis, to
// cover the page once the tiles are drawn rotated by theta degrees.
//
// The horizontal extent is taken from the projection of the far corner
// (pageWidth, pageHeight), the vertical extent from the projection of
// (0, pageHeight). A non-positive tile dimension yields (0, 0); an axis with
// a non-positive or non-finite extent has zero tiles.
func TileGrid(theta float64, pageWidth, pageHeight, tileWidth, tileHeight Length) (columns, rows int) {
	if !(tileWidth > 0) || !(tileHeight > 0) {
		return 0, 0
	}
	far := ToRotated(theta, pageWidth, Point{X: pageWidth, Y: pageHeight})
	top := ToRotated(theta, pageWidth, Point{X: 0, Y: pageHeight})

	columns, rows = tileCount(far.X, tileWidth), tileCount(top.Y, tileHeight)
	if columns == 0 || rows == 0 {
		return 0, 0
	}
	return columns, rows
}

func tileCount(extent, tile Length) int {
	if !(tile > 0) || !(extent > 0) || math.IsInf(tile, 0) || math.IsInf(extent, 0) {
		return 0
	}
	n := math.Ceil(extent / tile)
	if math.IsNaN(n) || math.IsInf(n, 0) || n > math.MaxInt32 {
		return 0
	}
	return int(n)
}

// TileAnchor returns the page-space origin of the tile at (column, row).
//
// The tile corner in rotated space is mapped back with FromRotated, then the
// x component is shifted left by tileHeight*sin(theta) to compensate for the
// offset of the rotated text box. The correction is part of the output
// format and must not be changed.
func TileAnchor(theta float64, pageWidth Length, column, row int, tileWidth, tileHeight Length) Point {
	p := FromRotated(theta, pageWidth, Point{
		X: tileWidth * Length(column),
		Y: tileHeight * Length(row),
	})
	p.X -= tileHeight * math.Sin(Radians(theta))
	return p
}
