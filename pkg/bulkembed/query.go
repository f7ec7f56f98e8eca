package bulkembed

// termsChunkSize is the maximum number of application IDs packed into a
// single must_not terms clause when excluding already-processed
// documents on resume (§4.9: "chunked terms clauses of ≤1024 each").
const termsChunkSize = 1024

// discoveryQuery builds the search_after query excluding documents that
// already carry a description_embedding, plus (only on resume, when
// processedIDs is non-empty) must_not terms clauses bypassing IDs
// already written in a prior run.
func discoveryQuery(processedIDs []string) map[string]any {
	mustNot := []map[string]any{
		{"exists": map[string]any{"field": "description_embedding"}},
	}
	for _, chunk := range chunkIDs(processedIDs, termsChunkSize) {
		mustNot = append(mustNot, map[string]any{
			"terms": map[string]any{"application_id": chunk},
		})
	}

	return map[string]any{
		"bool": map[string]any{
			"must_not": mustNot,
		},
	}
}

func chunkIDs(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// sortSpec is the fixed search_after sort order (§4.9). last_changed
// maps onto the index's updated_at field, matching the submission_date
// translation of start_date elsewhere in this index (§6.1).
func sortSpec() []map[string]string {
	return []map[string]string{
		{"submission_date": "desc"},
		{"updated_at": "desc"},
		{"application_id": "asc"},
	}
}
