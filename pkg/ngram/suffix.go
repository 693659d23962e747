package ngram

// CommonSuffix returns the number of trailing words a and b share,
// comparing from the rightmost word backward until a mismatch or the
// shorter sequence is exhausted.
func CommonSuffix(a, b []WordID) int {
	i := len(a) - 1
	j := len(b) - 1
	n := 0
	for i >= 0 && j >= 0 && a[i] == b[j] {
		i--
		j--
		n++
	}
	return n
}

// SuffixLess orders equal-length word sequences so that sequences sharing
// a longer common suffix are adjacent: the rightmost word is the most
// significant key, then the word to its left, and so on. This is the
// ordering the adjusted-count engine requires of its input stream.
func SuffixLess(a, b []WordID) bool {
	i := len(a) - 1
	j := len(b) - 1
	for i >= 0 && j >= 0 {
		if a[i] != b[j] {
			return a[i] < b[j]
		}
		i--
		j--
	}
	return len(a) < len(b)
}
