package domain

const (
	MaxAuthorLen  = 50
	MaxCommentLen = 500
)

type Comment struct {
	ID        string `json:"id"`
	CityID    int64  `json:"cityId"`
	Author    string `json:"author"`
	Rating    int    `json:"rating"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // unix millis
	Helpful   int    `json:"helpful"`
}

type RatingSummary struct {
	Average   float64     `json:"average"`
	Count     int         `json:"count"`
	Histogram map[int]int `json:"histogram"` // always keys 1..5
}
