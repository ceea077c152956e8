package utils

import (
	"sort"
	"strconv"
	"strings"
)

// DetermineLocale picks the locale for a request: an explicit query value
// wins, then the highest-q supported entry of Accept-Language, then def.
// Regional tags fall back to their base language ("de-AT" -> "de").
func DetermineLocale(queryLang, acceptLang string, supported []string, def string) string {
	sup := make(map[string]bool, len(supported))
	for _, s := range supported {
		sup[strings.ToLower(s)] = true
	}
	match := func(tag string) (string, bool) {
		l := strings.ToLower(strings.TrimSpace(tag))
		if l == "" {
			return "", false
		}
		if sup[l] {
			return l, true
		}
		if base, _, ok := strings.Cut(l, "-"); ok && sup[base] {
			return base, true
		}
		return "", false
	}

	if l, ok := match(queryLang); ok {
		return l
	}

	type candidate struct {
		lang string
		q    float64
	}
	var cands []candidate
	for _, part := range strings.Split(acceptLang, ",") {
		tag, params, _ := strings.Cut(part, ";")
		q := 1.0
		if k, v, ok := strings.Cut(params, "="); ok && strings.TrimSpace(k) == "q" {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				continue
			}
			q = parsed
		}
		if q <= 0 {
			continue
		}
		if l, ok := match(tag); ok {
			cands = append(cands, candidate{lang: l, q: q})
		}
	}
	if len(cands) > 0 {
		sort.SliceStable(cands, func(i, j int) bool { return cands[i].q > cands[j].q })
		return cands[0].lang
	}
	if l, ok := match(def); ok {
		return l
	}
	if len(supported) > 0 {
		return strings.ToLower(supported[0])
	}
	return "en"
}
