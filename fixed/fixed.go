// Package fixed provides a Q16.16 fixed-point scalar.
//
// The plain arithmetic methods wrap on overflow, the same way two's complement
// integers do. The Saturating variants clamp to [Min, Max] instead.
package fixed

import (
	"math"
	"math/bits"
	"strconv"
)

// FracBits is the number of fractional bits.
const FracBits = 16

// Fixed is a signed fixed-point number with 16 integer and 16 fractional bits.
type Fixed int32

// Common values.
const (
	Zero    Fixed = 0
	One     Fixed = 1 << FracBits
	Half    Fixed = One / 2
	Quarter Fixed = One / 4
	Max     Fixed = math.MaxInt32
	Min     Fixed = math.MinInt32
)

// FromBits reinterprets raw Q16.16 bits as a Fixed.
func FromBits(b int32) Fixed {
	return Fixed(b)
}

// FromInt converts an integer. Values outside the integer range wrap.
func FromInt(i int) Fixed {
	return Fixed(int32(i) << FracBits)
}

// FromFloat converts a float, rounding to the nearest representable value and
// saturating at the range limits.
func FromFloat(v float64) Fixed {
	if math.IsNaN(v) {
		return Zero
	}

	scaled := math.Round(v * float64(One))

	return saturate(scaled)
}

// Ratio returns num/den as a Fixed, saturating at Max. den must not be zero.
func Ratio(num, den uint64) Fixed {
	hi, lo := bits.Mul64(num, uint64(One))
	if hi >= den {
		return Max
	}

	q, _ := bits.Div64(hi, lo, den)
	if q > uint64(Max) {
		return Max
	}

	return Fixed(q)
}

// Bits returns the raw Q16.16 representation.
func (f Fixed) Bits() int32 {
	return int32(f)
}

// Float converts f to a float64. The conversion is exact.
func (f Fixed) Float() float64 {
	return float64(f) / float64(One)
}

// String formats f as a decimal number.
func (f Fixed) String() string {
	return strconv.FormatFloat(f.Float(), 'f', -1, 64)
}

// Add returns f+g, wrapping on overflow.
func (f Fixed) Add(g Fixed) Fixed {
	return f + g
}

// Sub returns f-g, wrapping on overflow.
func (f Fixed) Sub(g Fixed) Fixed {
	return f - g
}

// Mul returns f*g rounded toward negative infinity, wrapping on overflow.
func (f Fixed) Mul(g Fixed) Fixed {
	return Fixed(int32((int64(f) * int64(g)) >> FracBits))
}

// Div returns f/g truncated toward zero, wrapping on overflow. Dividing by
// zero panics, as integer division does.
func (f Fixed) Div(g Fixed) Fixed {
	return Fixed(int32((int64(f) << FracBits) / int64(g)))
}

// Neg returns -f.
func (f Fixed) Neg() Fixed {
	return -f
}

// Abs returns |f|. Abs(Min) saturates to Max.
func (f Fixed) Abs() Fixed {
	if f == Min {
		return Max
	}

	if f < 0 {
		return -f
	}

	return f
}

// SaturatingAdd returns f+g clamped to [Min, Max].
func (f Fixed) SaturatingAdd(g Fixed) Fixed {
	return saturate64(int64(f) + int64(g))
}

// SaturatingSub returns f-g clamped to [Min, Max].
func (f Fixed) SaturatingSub(g Fixed) Fixed {
	return saturate64(int64(f) - int64(g))
}

// SaturatingMul returns f*g clamped to [Min, Max].
func (f Fixed) SaturatingMul(g Fixed) Fixed {
	return saturate64((int64(f) * int64(g)) >> FracBits)
}

// SaturatingDiv returns f/g clamped to [Min, Max]. Dividing by zero
// saturates toward the sign of f, and 0/0 is 0.
func (f Fixed) SaturatingDiv(g Fixed) Fixed {
	if g == 0 {
		switch {
		case f > 0:
			return Max
		case f < 0:
			return Min
		default:
			return Zero
		}
	}

	return saturate64((int64(f) << FracBits) / int64(g))
}

// MaxOf returns the larger of f and g.
func (f Fixed) MaxOf(g Fixed) Fixed {
	if f > g {
		return f
	}

	return g
}

// MinOf returns the smaller of f and g.
func (f Fixed) MinOf(g Fixed) Fixed {
	if f < g {
		return f
	}

	return g
}

func saturate64(v int64) Fixed {
	if v > math.MaxInt32 {
		return Max
	}

	if v < math.MinInt32 {
		return Min
	}

	return Fixed(v)
}

func saturate(v float64) Fixed {
	if v >= math.MaxInt32 {
		return Max
	}

	if v <= math.MinInt32 {
		return Min
	}

	return Fixed(int32(v))
}
