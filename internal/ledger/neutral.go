package ledger

// KeywordSet is the set of normalized neutral keywords.
type KeywordSet map[string]struct{}

func NewKeywordSet(keywords ...string) KeywordSet {
	set := make(KeywordSet, len(keywords))
	for _, k := range keywords {
		if key := NormalizeKey(k); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

func (s KeywordSet) Contains(key string) bool {
	_, ok := s[NormalizeKey(key)]
	return ok
}

// IsNeutral reports whether description equals one of the keywords after
// normalization. Substrings never match.
func IsNeutral(description string, keywords KeywordSet) bool {
	return keywords.Contains(description)
}
