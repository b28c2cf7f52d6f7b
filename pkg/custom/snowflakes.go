package custom

// Snowflakes is an ordered set of Discord IDs. The order is the order the IDs were added in.
type Snowflakes []string

// Contains reports whether id is in the set.
func (s Snowflakes) Contains(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// ContainsAny reports whether any of ids is in the set.
func (s Snowflakes) ContainsAny(ids []string) bool {
	for _, id := range ids {
		if s.Contains(id) {
			return true
		}
	}
	return false
}

// Add returns the set with id appended. The bool is false when id was already present.
func (s Snowflakes) Add(id string) (Snowflakes, bool) {
	if id == "" || s.Contains(id) {
		return s, false
	}
	return append(s, id), true
}

// Remove returns the set without id. The bool is false when id was not present.
func (s Snowflakes) Remove(id string) (Snowflakes, bool) {
	for i, v := range s {
		if v == id {
			out := make(Snowflakes, 0, len(s)-1)
			out = append(out, s[:i]...)
			return append(out, s[i+1:]...), true
		}
	}
	return s, false
}

// Union returns the deduplicated union of the sets, keeping first-seen order.
func Union(sets ...Snowflakes) Snowflakes {
	out := make(Snowflakes, 0)
	for _, set := range sets {
		for _, id := range set {
			out, _ = out.Add(id)
		}
	}
	return out
}
