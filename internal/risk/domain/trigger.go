package risk

import (
	"sort"
	"strings"
)

// NormalizeTriggers reduces a raw comma-joined trigger string to the canonical
// label: tokens trimmed, title-cased, restricted to the fixed vocabulary,
// deduplicated, sorted alphabetically, joined with ", ". Unrecognized tokens
// are dropped so a malformed upstream label degrades instead of failing.
// Normalizing an already-canonical label reproduces it exactly.
func NormalizeTriggers(raw string) string {
	if raw == "" {
		return ""
	}

	seen := make(map[string]bool, 3)
	for _, token := range strings.Split(raw, ",") {
		token = titleToken(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		switch token {
		case TriggerTemperature, TriggerWind, TriggerHumidity:
			seen[token] = true
		}
	}
	if len(seen) == 0 {
		return ""
	}

	canonical := make([]string, 0, len(seen))
	for token := range seen {
		canonical = append(canonical, token)
	}
	sort.Strings(canonical)
	return strings.Join(canonical, ", ")
}

// ScoreTriggers maps a trigger label to the 0..3 risk score: the count of
// distinct recognized trigger types, independent of window duration or breach
// magnitude. The label is normalized first, so raw hour labels score the same
// as canonical ones.
func ScoreTriggers(triggers string) int {
	canonical := NormalizeTriggers(triggers)
	if canonical == "" {
		return 0
	}
	count := strings.Count(canonical, ",") + 1
	if count > 3 {
		return 3
	}
	return count
}

// titleToken upper-cases the first byte and lower-cases the rest. The
// vocabulary is plain ASCII, so byte-wise casing is sufficient.
func titleToken(token string) string {
	if token == "" {
		return ""
	}
	return strings.ToUpper(token[:1]) + strings.ToLower(token[1:])
}
