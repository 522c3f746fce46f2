package persistence

// batchSize bounds the number of parameters in one "id IN (...)" query.
const batchSize = 50

// chunkIDs splits ids into successive contiguous sub-slices of at most size
// elements, preserving order. The chunks cover the input exactly once; the
// final chunk may be smaller. Chunks alias the input slice, no copies are
// made.
func chunkIDs(ids []int, size int) [][]int {
	if size <= 0 || len(ids) == 0 {
		return nil
	}

	chunks := make([][]int, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
