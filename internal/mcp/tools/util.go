package tools

// normalizeLimit applies the default for unset limits and clamps the
// rest into [1, upper].
func normalizeLimit(limit, def, upper int) int {
	if limit <= 0 {
		return def
	}
	if limit > upper {
		return upper
	}
	return limit
}
