package geometry

import "math"

// Interval is a closed parameter range on a line frame, Lo <= Hi
type Interval struct {
	Lo, Hi float64
}

func NewInterval(a, b float64) Interval {
	return Interval{Lo: math.Min(a, b), Hi: math.Max(a, b)}
}

func (iv Interval) Length() float64 { return iv.Hi - iv.Lo }

func (iv Interval) Mid() float64 { return 0.5 * (iv.Lo + iv.Hi) }

func (iv Interval) Intersect(o Interval) (out Interval, ok bool) {
	out = Interval{Lo: math.Max(iv.Lo, o.Lo), Hi: math.Min(iv.Hi, o.Hi)}
	ok = out.Hi > out.Lo
	return
}

// Subtract returns the (at most two) pieces of iv outside o
func (iv Interval) Subtract(o Interval) (pieces []Interval) {
	if o.Hi <= iv.Lo || o.Lo >= iv.Hi {
		return []Interval{iv}
	}
	if o.Lo > iv.Lo {
		pieces = append(pieces, Interval{Lo: iv.Lo, Hi: o.Lo})
	}
	if o.Hi < iv.Hi {
		pieces = append(pieces, Interval{Lo: o.Hi, Hi: iv.Hi})
	}
	return
}
