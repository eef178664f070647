package slice

// Check if a string exists in a string slice
func Contains(slice []string, str string) bool {
	for _, item := range slice {
		if item == str {
			return true
		}
	}
	return false
}

// Unique returns the non-empty items of input in first-seen order without duplicates
func Unique(input []string) []string {
	seen := make(map[string]struct{}, len(input))
	result := make([]string, 0, len(input))
	for _, v := range input {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}

// ToSet converts a string slice to a set
func ToSet(input []string) map[string]struct{} {
	set := make(map[string]struct{}, len(input))
	for _, v := range input {
		set[v] = struct{}{}
	}
	return set
}

func ContainsStringMapKey(m map[string]struct{}, key string) bool {
	_, ok := m[key]
	return ok
}
