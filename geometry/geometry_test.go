package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-4

func TestUnitConversions(t *testing.T) {
	assert.InDelta(t, 72.0, FromInches(1), 1e-9)
	assert.InDelta(t, 72.0, FromCentimeters(2.54), 1e-9)
	assert.InDelta(t, 72.0, FromMillimeters(25.4), 1e-9)
	assert.InDelta(t, 25.4, Millimeters(72), 1e-9)
	assert.InDelta(t, 2.54, Centimeters(72), 1e-9)
	assert.InDelta(t, 1.0, Inches(72), 1e-9)
}

func TestNormalizeDegrees(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{45, 45},
		{180, 180},
		{-180, 180},
		{270, -90},
		{-270, 90},
		{720, 0},
		{-45, -45},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, NormalizeDegrees(tt.in), 1e-9, "NormalizeDegrees(%v)", tt.in)
	}
}

func TestRotatedRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	thetas := []float64{180, 179.9, 135, 90, 45, 30, 1, 0, -0.5, -45, -90, -135, -179.99}

	for _, theta := range thetas {
		for i := 0; i < 200; i++ {
			width := 1 + rng.Float64()*5000
			p := Point{X: (rng.Float64() - 0.5) * 1e4, Y: (rng.Float64() - 0.5) * 1e4}

			got := FromRotated(theta, width, ToRotated(theta, width, p))
			require.InDelta(t, p.X, got.X, tolerance, "theta=%v width=%v p=%v", theta, width, p)
			require.InDelta(t, p.Y, got.Y, tolerance, "theta=%v width=%v p=%v", theta, width, p)
		}
	}
}

func TestToRotatedKnownValues(t *testing.T) {
	// At zero rotation the projection is the identity.
	p := ToRotated(0, 612, Point{X: 10, Y: 20})
	assert.InDelta(t, 10, p.X, tolerance)
	assert.InDelta(t, 20, p.Y, tolerance)

	// At 90 degrees the lower right corner lands on the origin and the
	// upper left corner on (h, w).
	corner := ToRotated(90, 612, Point{X: 612, Y: 0})
	assert.InDelta(t, 0, corner.X, tolerance)
	assert.InDelta(t, 0, corner.Y, tolerance)

	top := ToRotated(90, 612, Point{X: 0, Y: 396})
	assert.InDelta(t, 396, top.X, tolerance)
	assert.InDelta(t, 612, top.Y, tolerance)
}

func TestTileGrid(t *testing.T) {
	tests := []struct {
		name                 string
		theta                float64
		w, h                 Length
		tw, th               Length
		wantColumns, wantRow int
	}{
		{"no rotation exact fit", 0, 600, 400, 100, 100, 6, 4},
		{"no rotation partial tile", 0, 610, 410, 100, 100, 7, 5},
		{"rotated 45", 45, 612, 396, 100, 50, 8, 15},
		{"zero tile width", 45, 612, 396, 0, 50, 0, 0},
		{"negative tile height", 45, 612, 396, 100, -1, 0, 0},
		{"zero page", 30, 0, 0, 100, 100, 0, 0},
		{"NaN tile", 30, 612, 396, math.NaN(), 10, 0, 0},
		{"huge tile", 45, 612, 396, 1e6, 1e6, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			columns, rows := TileGrid(tt.theta, tt.w, tt.h, tt.tw, tt.th)
			assert.Equal(t, tt.wantColumns, columns)
			assert.Equal(t, tt.wantRow, rows)
		})
	}
}

func TestTileGridNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		theta := NormalizeDegrees(rng.Float64()*720 - 360)
		w, h := 1+rng.Float64()*3000, 1+rng.Float64()*3000
		tw, th := 0.5+rng.Float64()*500, 0.5+rng.Float64()*500

		columns, rows := TileGrid(theta, w, h, tw, th)
		require.GreaterOrEqual(t, columns, 0)
		require.GreaterOrEqual(t, rows, 0)
	}
}

func TestTileGridCoverage(t *testing.T) {
	thetas := []float64{0, 15, 45, 60, 90, 120, 180}
	for _, theta := range thetas {
		w, h := Length(612), Length(792)
		tw, th := Length(143.7), Length(36)

		columns, rows := TileGrid(theta, w, h, tw, th)
		if columns == 0 {
			continue
		}

		horizontal := ToRotated(theta, w, Point{X: w, Y: h}).X
		vertical := ToRotated(theta, w, Point{X: 0, Y: h}).Y

		assert.GreaterOrEqual(t, float64(columns)*tw, horizontal-tolerance, "theta=%v", theta)
		assert.GreaterOrEqual(t, float64(rows)*th, vertical-tolerance, "theta=%v", theta)
		assert.Less(t, float64(columns-1)*tw, horizontal, "theta=%v: one column too many", theta)
		assert.Less(t, float64(rows-1)*th, vertical, "theta=%v: one row too many", theta)
	}
}

func TestTileAnchor(t *testing.T) {
	// Without rotation anchors form a plain grid.
	p := TileAnchor(0, 612, 3, 2, 100, 40)
	assert.InDelta(t, 300, p.X, tolerance)
	assert.InDelta(t, 80, p.Y, tolerance)

	// With rotation the anchor is the inverse projection shifted left by
	// tileHeight*sin(theta).
	theta := 45.0
	want := FromRotated(theta, 612, Point{X: 200, Y: 80})
	got := TileAnchor(theta, 612, 2, 2, 100, 40)
	assert.InDelta(t, want.X-40*math.Sin(Radians(theta)), got.X, tolerance)
	assert.InDelta(t, want.Y, got.Y, tolerance)

	// The origin tile sits at the projected origin of rotated space.
	origin := TileAnchor(90, 612, 0, 0, 100, 40)
	assert.InDelta(t, 612-40, origin.X, tolerance)
	assert.InDelta(t, 0, origin.Y, tolerance)
}

func TestMatrixInverse(t *testing.T) {
	m := Translate(10, -4).Multiply(Rotate(0.7)).Multiply(Matrix{2, 0, 0, 3, 0, 0})
	inv, ok := m.Inverse()
	require.True(t, ok)

	id := m.Multiply(inv)
	for i, v := range Identity() {
		assert.InDelta(t, v, id[i], 1e-9)
	}

	p := Point{X: 3, Y: 5}
	back := inv.Apply(m.Apply(p))
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)
}

func TestMatrixInverseSingular(t *testing.T) {
	inv, ok := Matrix{1, 2, 2, 4, 5, 6}.Inverse()
	assert.False(t, ok)
	assert.True(t, inv.IsIdentity())

	inv, ok = Matrix{math.Inf(1), 0, 0, 1, 0, 0}.Inverse()
	assert.False(t, ok)
	assert.True(t, inv.IsIdentity())
}
