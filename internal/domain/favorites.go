package domain

// FavoriteSet keeps insertion order but has set semantics.
type FavoriteSet []int64

func (f FavoriteSet) Contains(id int64) bool {
	for _, v := range f {
		if v == id {
			return true
		}
	}
	return false
}

func (f FavoriteSet) Without(id int64) FavoriteSet {
	out := make(FavoriteSet, 0, len(f))
	for _, v := range f {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
