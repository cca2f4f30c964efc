// Package proximity turns two positions into a coarse proximity category.
// Nothing here logs, caches or retains coordinates.
package proximity

// Categorize buckets the distance between a and b. When fence is supplied and
// b lies inside it, the result is CategoryWithinVenue regardless of distance.
// Invalid coordinates yield CategoryUnknown.
func Categorize(a, b Position, fence *Geofence) Category {
	if !a.Valid() || !b.Valid() {
		return CategoryUnknown
	}
	if fence != nil && fence.Contains(b) {
		return CategoryWithinVenue
	}
	return bucket(Distance(a, b))
}
