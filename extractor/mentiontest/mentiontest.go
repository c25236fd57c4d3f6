// Package mentiontest provides a trivial stub extractor.Extractor
// sufficient to exercise L1 manifests in tests — the real
// mention-extraction model is out of scope (§1).
package mentiontest

import (
	"bytes"

	"nodalync.dev/core/extractor"
)

// Extractor finds tokens delimited by whitespace or any of ".,;:!?"
// that start with an uppercase letter and labels each a "TERM"
// mention. It exists only to give tests real (if unsophisticated)
// mentions to operate on.
type Extractor struct{}

var _ extractor.Extractor = Extractor{}

func (Extractor) Extract(content []byte, mime string) ([]extractor.Mention, error) {
	var mentions []extractor.Mention
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		word := content[start:end]
		if len(word) > 0 && word[0] >= 'A' && word[0] <= 'Z' {
			mentions = append(mentions, extractor.Mention{
				Text:  string(word),
				Span:  extractor.Span{Start: start, End: end},
				Label: "TERM",
			})
		}
		start = -1
	}
	for i, b := range content {
		if bytes.IndexByte([]byte(" \t\n\r.,;:!?"), b) >= 0 {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(content))
	return mentions, nil
}
