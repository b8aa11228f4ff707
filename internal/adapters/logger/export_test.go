package logger

// ErrorEntries exposes the flattened error chain to tests.
func ErrorEntries(err error) ([]string, []map[string]any) {
	entries := collectErrorEntries(err)
	msgs := make([]string, len(entries))
	metas := make([]map[string]any, len(entries))
	for i, e := range entries {
		msgs[i] = e.Message
		metas[i] = e.Metadata
	}
	return msgs, metas
}
