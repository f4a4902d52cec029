package domain

import (
	"net/url"
	"strings"
)

// MatchAll is the q value meaning "no free-text filter".
const MatchAll = "all"

type Criteria struct {
	FreeText string   `json:"freeText"`
	Regions  []string `json:"regions"`
	Tags     []string `json:"tags"`
	Seasons  []string `json:"seasons"`
}

// Query returns the free text with the MatchAll sentinel folded to "".
func (c Criteria) Query() string {
	q := strings.TrimSpace(c.FreeText)
	if q == MatchAll {
		return ""
	}
	return q
}

func (c Criteria) IsEmpty() bool {
	return c.Query() == "" && len(c.Regions) == 0 && len(c.Tags) == 0 && len(c.Seasons) == 0
}

// ActiveCount counts a real query as one filter plus every selected value.
func (c Criteria) ActiveCount() int {
	n := len(c.Regions) + len(c.Tags) + len(c.Seasons)
	if c.Query() != "" {
		n++
	}
	return n
}

// ParseCriteria reads q, regions, tags and seasons from a query string.
// Lists are comma-joined; empty pieces are dropped.
func ParseCriteria(v url.Values) Criteria {
	return Criteria{
		FreeText: Criteria{FreeText: v.Get("q")}.Query(),
		Regions:  splitList(v.Get("regions")),
		Tags:     splitList(v.Get("tags")),
		Seasons:  splitList(v.Get("seasons")),
	}
}

// Values encodes c for a shareable link. q is always present.
func (c Criteria) Values() url.Values {
	v := url.Values{}
	if q := c.Query(); q != "" {
		v.Set("q", q)
	} else {
		v.Set("q", MatchAll)
	}
	if len(c.Regions) > 0 {
		v.Set("regions", strings.Join(c.Regions, ","))
	}
	if len(c.Tags) > 0 {
		v.Set("tags", strings.Join(c.Tags, ","))
	}
	if len(c.Seasons) > 0 {
		v.Set("seasons", strings.Join(c.Seasons, ","))
	}
	return v
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
