// Package chunker divides repository content into token-budgeted spans for
// embedding.
//
// Input is arbitrary text with a language hint; no parsing is attempted
// because walked content spans every language in a repository's history.
// Text within the budget yields exactly one span. Oversized text is split
// at blank-line boundaries, and for code hints also at dedent boundaries,
// with a few lines of overlap carried between adjacent spans.
//
// # Basic Usage
//
//	c := chunker.New()
//	spans := c.Chunk(string(record.Content), chunker.LanguageHint(path))
//	for _, span := range spans {
//	    fmt.Printf("%d tokens, lines %d-%d\n",
//	        span.TokenCount, span.StartLine, span.EndLine)
//	}
//
// Token estimation uses a simple heuristic (chars/4). For more accuracy,
// use a proper tokenizer library.
package chunker
