package entities

import "strings"

// ChannelSlug converts s into a Discord channel name capped at MaxChannelNameLength.
func ChannelSlug(s string) string {
	out := Slugify(s)
	if len(out) > MaxChannelNameLength {
		out = out[:MaxChannelNameLength]
	}
	return out
}

// Slugify lower cases s, replaces whitespace with dashes and drops anything other than [a-z0-9-].
func Slugify(s string) string {
	s = strings.Join(strings.Fields(strings.ToLower(s)), "-")

	b := new(strings.Builder)
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
