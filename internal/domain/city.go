package domain

// Seasons in display order. Also the season allow-list.
var Seasons = []string{"Spring", "Summer", "Autumn", "Winter"}

type City struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Country     string   `json:"country"`
	Region      string   `json:"region"`
	Summary     string   `json:"summary"`
	Image       string   `json:"image"`
	Tags        []string `json:"tags"`
	BestSeasons []string `json:"bestSeasons"`
	DetailFile  string   `json:"detailFile"`
}

// AllowList is the fixed vocabulary the AI extractor may answer with.
type AllowList struct {
	Regions []string `json:"regions"`
	Tags    []string `json:"tags"`
	Seasons []string `json:"seasons"`
}

// BuildAllowList collects regions and tags in order of first appearance.
func BuildAllowList(cities []City) AllowList {
	al := AllowList{Seasons: append([]string(nil), Seasons...)}
	seenRegion := map[string]struct{}{}
	seenTag := map[string]struct{}{}
	for _, c := range cities {
		if c.Region != "" {
			if _, ok := seenRegion[c.Region]; !ok {
				seenRegion[c.Region] = struct{}{}
				al.Regions = append(al.Regions, c.Region)
			}
		}
		for _, t := range c.Tags {
			if t == "" {
				continue
			}
			if _, ok := seenTag[t]; !ok {
				seenTag[t] = struct{}{}
				al.Tags = append(al.Tags, t)
			}
		}
	}
	return al
}

// Sanitize drops every value of c not present in the allow-list.
func (a AllowList) Sanitize(c Criteria) Criteria {
	return Criteria{
		FreeText: c.FreeText,
		Regions:  keepAllowed(c.Regions, a.Regions),
		Tags:     keepAllowed(c.Tags, a.Tags),
		Seasons:  keepAllowed(c.Seasons, a.Seasons),
	}
}

func keepAllowed(in, allowed []string) []string {
	set := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		set[v] = struct{}{}
	}
	out := []string{}
	seen := map[string]struct{}{}
	for _, v := range in {
		if _, ok := set[v]; !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

type CityView struct {
	City
	Detail   string        `json:"detail,omitempty"`
	Rating   RatingSummary `json:"rating"`
	Favorite bool          `json:"favorite"`
}
