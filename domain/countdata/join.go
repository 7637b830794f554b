package countdata

// Join merges Count Maps by summing the counts of each value. A value
// absent from an input contributes nothing for that input. Counts are not
// validated here.
//
// Missing-value keys never compare equal, so every NaN entry is carried
// over as its own key.
func Join[V Value](maps ...CountMap[V]) CountMap[V] {
	size := 0
	for _, m := range maps {
		if len(m) > size {
			size = len(m)
		}
	}

	ret := make(CountMap[V], size)
	for _, m := range maps {
		for v, c := range m {
			ret[v] += c
		}
	}
	return ret
}
