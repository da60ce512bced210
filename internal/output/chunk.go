package output

import "strings"

// chunk packs header and entries into messages no longer than limit bytes.
// An entry is never split across messages.
func chunk(header string, entries []string, limit int) []string {
	var chunks []string
	var current strings.Builder
	current.WriteString(header)

	for _, entry := range entries {
		if current.Len() > 0 && current.Len()+len(entry) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		current.WriteString(entry)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
