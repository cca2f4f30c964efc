package proximity

import "fmt"

// Category is a coarse, ordered proximity bucket. Lower values are closer.
type Category int

const (
	CategoryNearby Category = iota
	CategoryWithin200m
	CategoryWithinVenue
	CategoryWithin500m
	CategoryUnknown
)

const (
	nearbyMeters    = 20.0
	within200Meters = 200.0
	within500Meters = 500.0
)

var categoryNames = map[Category]string{
	CategoryNearby:      "nearby",
	CategoryWithin200m:  "within_200m",
	CategoryWithinVenue: "within_venue",
	CategoryWithin500m:  "within_500m",
	CategoryUnknown:     "unknown",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return categoryNames[CategoryUnknown]
}

// MarshalText renders the category by name so JSON never carries raw ordinals.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (c *Category) UnmarshalText(b []byte) error {
	for cat, name := range categoryNames {
		if name == string(b) {
			*c = cat
			return nil
		}
	}
	return fmt.Errorf("unknown proximity category %q", b)
}

// bucket maps a distance in meters to a category. WithinVenue is never
// produced from distance alone.
func bucket(meters float64) Category {
	switch {
	case meters < nearbyMeters:
		return CategoryNearby
	case meters < within200Meters:
		return CategoryWithin200m
	case meters < within500Meters:
		return CategoryWithin500m
	default:
		return CategoryUnknown
	}
}
