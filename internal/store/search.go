package store

// BinarySearch reports whether target is present in sorted, which must be in
// ascending order.
func BinarySearch(sorted []int32, target int32) bool {
	lo, hi := 0, len(sorted)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		switch {
		case sorted[mid] == target:
			return true
		case sorted[mid] < target:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return false
}
