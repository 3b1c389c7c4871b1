package usecase

import (
	"regexp"
	"strings"
)

// ModelPlaceholder marks where a product name expects a device model
const ModelPlaceholder = "[MODEL]"

var multipleSpacesRegex = regexp.MustCompile(`\s+`)

// ResolveModelName fills the [MODEL] placeholder of a display name.
// The model the shopper searched for wins (longest match against the
// remembered query); otherwise a single model is used as is and several
// models collapse to "first - last".
func ResolveModelName(name string, models []string, rememberedQuery string) string {
	if !strings.Contains(name, ModelPlaceholder) {
		return name
	}

	model := pickModel(models, rememberedQuery)
	resolved := strings.ReplaceAll(name, ModelPlaceholder, model)
	if model == "" {
		resolved = multipleSpacesRegex.ReplaceAllString(resolved, " ")
	}
	return strings.TrimSpace(resolved)
}

func pickModel(models []string, rememberedQuery string) string {
	candidates := make([]string, 0, len(models))
	for _, m := range models {
		if m = strings.TrimSpace(m); m != "" {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	if query := NormalizeCompact(rememberedQuery); query != "" {
		best := ""
		for _, m := range candidates {
			compact := NormalizeCompact(m)
			if compact != "" && strings.Contains(query, compact) && len(compact) > len(NormalizeCompact(best)) {
				best = m
			}
		}
		if best != "" {
			return best
		}
	}

	if len(candidates) == 1 {
		return candidates[0]
	}
	return candidates[0] + " - " + candidates[len(candidates)-1]
}
