package utils

func IsStringInSlice(s string, slice []string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

// ArraysEqual reports whether a and b hold the same elements in the same order.
func ArraysEqual[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Difference returns the elements of a that are not in b, keeping the order of a.
func Difference(a, b []string) []string {
	seen := make(map[string]struct{}, len(b))
	for _, v := range b {
		seen[v] = struct{}{}
	}
	var diff []string
	for _, v := range a {
		if _, ok := seen[v]; !ok {
			diff = append(diff, v)
		}
	}
	return diff
}
