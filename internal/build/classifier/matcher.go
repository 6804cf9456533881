package classifier

// matchRatio computes a normalized similarity between two strings as
// 2*M/T, where M is the total length of the longest matching blocks and
// T the combined length. 1.0 means identical, 0.0 means no overlap.
func matchRatio(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1.0
	}
	matched := matchingBlocks(a, b, 0, len(a), 0, len(b))
	return 2.0 * float64(matched) / float64(total)
}

// matchingBlocks sums the sizes of matching blocks found by recursively
// splitting around the longest common substring of each region.
func matchingBlocks(a, b string, alo, ahi, blo, bhi int) int {
	i, j, size := longestMatch(a, b, alo, ahi, blo, bhi)
	if size == 0 {
		return 0
	}
	return size +
		matchingBlocks(a, b, alo, i, blo, j) +
		matchingBlocks(a, b, i+size, ahi, j+size, bhi)
}

// longestMatch finds the longest common substring of a[alo:ahi] and
// b[blo:bhi], preferring the earliest occurrence in a, then in b.
func longestMatch(a, b string, alo, ahi, blo, bhi int) (besti, bestj, size int) {
	besti, bestj = alo, blo
	j2len := make(map[int]int)

	for i := alo; i < ahi; i++ {
		newJ2len := make(map[int]int)
		for j := blo; j < bhi; j++ {
			if a[i] != b[j] {
				continue
			}
			k := j2len[j-1] + 1
			newJ2len[j] = k
			if k > size {
				besti, bestj, size = i-k+1, j-k+1, k
			}
		}
		j2len = newJ2len
	}

	return besti, bestj, size
}
