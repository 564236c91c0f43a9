package domain

// ClassKey identifies a fare/seat category on a trip. Capacity and
// pricing are partitioned by class, one inventory row per
// (departure, class) pair.
type ClassKey string

const (
	ClassFirst    ClassKey = "first"
	ClassSecond   ClassKey = "second"
	ClassEconomic ClassKey = "economic"
)

// Known reports whether the class key is one of the supported fare
// categories. A trip may still not sell a known class if no fare row
// exists for it.
func (c ClassKey) Known() bool {
	switch c {
	case ClassFirst, ClassSecond, ClassEconomic:
		return true
	}
	return false
}

// SeatPrefix returns the one-letter prefix used when assigning seat
// numbers for this class.
func (c ClassKey) SeatPrefix() string {
	switch c {
	case ClassFirst:
		return "F"
	case ClassSecond:
		return "S"
	default:
		return "E"
	}
}
