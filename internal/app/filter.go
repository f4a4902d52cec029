package app

import (
	"strings"

	"global_explorer/internal/domain"
)

// Evaluate returns the catalog records matching every non-empty field of c,
// in catalog order. Within a field any value may match; empty criteria keep
// the whole catalog.
func Evaluate(catalog []domain.City, c domain.Criteria) []domain.City {
	q := strings.ToLower(c.Query())
	regions := toSet(c.Regions)
	tags := toSet(c.Tags)
	seasons := toSet(c.Seasons)

	out := make([]domain.City, 0, len(catalog))
	for _, city := range catalog {
		if q != "" && !matchesText(city, q) {
			continue
		}
		if len(regions) > 0 {
			if _, ok := regions[city.Region]; !ok {
				continue
			}
		}
		if len(tags) > 0 && !anyIn(city.Tags, tags) {
			continue
		}
		if len(seasons) > 0 && !anyIn(city.BestSeasons, seasons) {
			continue
		}
		out = append(out, city)
	}
	return out
}

func matchesText(c domain.City, q string) bool {
	if strings.Contains(strings.ToLower(c.Name), q) ||
		strings.Contains(strings.ToLower(c.Country), q) ||
		strings.Contains(strings.ToLower(c.Summary), q) {
		return true
	}
	for _, t := range c.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

func anyIn(vals []string, set map[string]struct{}) bool {
	for _, v := range vals {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

func toSet(vals []string) map[string]struct{} {
	if len(vals) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}
