package images

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIoU(t *testing.T) {
	tests := []struct {
		name     string
		r1       Rect
		r2       Rect
		expected float32
	}{
		{
			name:     "identical boxes",
			r1:       NewRect(0, 0, 100, 100),
			r2:       NewRect(0, 0, 100, 100),
			expected: 1.0,
		},
		{
			name:     "quarter overlap",
			r1:       NewRect(0, 0, 10, 10),
			r2:       NewRect(5, 5, 15, 15),
			expected: 25.0 / 175.0,
		},
		{
			name:     "disjoint boxes",
			r1:       NewRect(0, 0, 10, 10),
			r2:       NewRect(20, 20, 30, 30),
			expected: 0.0,
		},
		{
			name:     "touching edges",
			r1:       NewRect(0, 0, 10, 10),
			r2:       NewRect(10, 0, 20, 10),
			expected: 0.0,
		},
		{
			name:     "contained box",
			r1:       NewRect(0, 0, 100, 100),
			r2:       NewRect(25, 25, 75, 75),
			expected: 2500.0 / 10000.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.r1.IoU(tt.r2), 1e-6)
			// IoU is symmetric.
			assert.InDelta(t, tt.r1.IoU(tt.r2), tt.r2.IoU(tt.r1), 1e-6)
		})
	}
}

func TestTransposeRoundTrip(t *testing.T) {
	r := NewRect(12.5, 40, 210.25, 180)
	for _, off := range []struct{ dx, dy float32 }{
		{0, 0},
		{15, 30},
		{-7.5, 3.25},
		{640, 480},
	} {
		got := r.Transpose(off.dx, off.dy).Transpose(-off.dx, -off.dy)
		assert.Equal(t, r, got, "transpose(%v, %v) must round-trip", off.dx, off.dy)
	}
}

func TestMult(t *testing.T) {
	r := NewRect(0.1, 0.2, 0.5, 0.8)
	got := r.Mult(640, 480)
	assert.InDelta(t, 64, got.X1, 1e-4)
	assert.InDelta(t, 96, got.Y1, 1e-4)
	assert.InDelta(t, 320, got.X2, 1e-4)
	assert.InDelta(t, 384, got.Y2, 1e-4)
}

func TestSquare(t *testing.T) {
	tests := []struct {
		name string
		r    Rect
	}{
		{name: "wide box", r: NewRect(0, 0, 100, 40)},
		{name: "tall box", r: NewRect(10, 10, 50, 130)},
		{name: "already square", r: NewRect(-5, -5, 5, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sq := tt.r.Square()
			assert.InDelta(t, sq.Width(), sq.Height(), 1e-4, "result must be square")
			assert.InDelta(t, tt.r.MaxDimLen(), sq.Width(), 1e-4, "side must be the longer dimension")
			assert.Equal(t, tt.r.Center(), sq.Center(), "center must be preserved")
			// The square covers the original box.
			assert.LessOrEqual(t, sq.X1, tt.r.X1)
			assert.LessOrEqual(t, sq.Y1, tt.r.Y1)
			assert.GreaterOrEqual(t, sq.X2, tt.r.X2)
			assert.GreaterOrEqual(t, sq.Y2, tt.r.Y2)
		})
	}
}

func TestContains(t *testing.T) {
	r := NewRect(10, 10, 20, 20)

	assert.True(t, r.Contains(Point{15, 15}))
	assert.True(t, r.Contains(Point{10, 10}), "borders are inclusive")
	assert.True(t, r.Contains(Point{20, 20}), "borders are inclusive")
	assert.False(t, r.Contains(Point{9.99, 15}))
	assert.False(t, r.Contains(Point{15, 20.01}))
}

func TestDerivedAttributes(t *testing.T) {
	r := NewRect(10, 20, 40, 100)

	assert.Equal(t, float32(30), r.Width())
	assert.Equal(t, float32(80), r.Height())
	assert.Equal(t, float32(2400), r.Area())
	assert.Equal(t, float32(80), r.MaxDimLen())
	assert.Equal(t, Point{25, 60}, r.Center())
}

func TestSqDist(t *testing.T) {
	assert.Equal(t, float32(0), SqDist(Point{3, 4}, Point{3, 4}))
	assert.Equal(t, float32(25), SqDist(Point{0, 0}, Point{3, 4}))

	// Squared distance agrees with the euclidean distance squared.
	d := SqDist(Point{1, 2}, Point{4, 6})
	assert.InDelta(t, math.Pow(5, 2), float64(d), 1e-6)
}
