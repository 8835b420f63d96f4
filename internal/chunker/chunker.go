package chunker

import (
	"path"
	"strings"
)

const (
	// MaxTokensPerChunk is the default token budget per chunk.
	MaxTokensPerChunk = 1000

	// TokensPerChar is the heuristic for estimating tokens (chars/4)
	TokensPerChar = 4

	// OverlapLines carries trailing lines of one chunk into the next so a
	// span boundary never strands a reference from its definition.
	OverlapLines = 4
)

// Span is one chunk of text with its 1-based line range.
type Span struct {
	Index      int
	StartLine  int
	EndLine    int
	Content    string
	TokenCount int
}

// Chunker splits arbitrary text into token-budgeted spans, preferring to
// break at blank lines or dedent boundaries.
type Chunker struct {
	maxTokens    int
	overlapLines int
}

// New creates a Chunker with the default budget.
func New() *Chunker {
	return NewWithBudget(MaxTokensPerChunk, OverlapLines)
}

// NewWithBudget creates a Chunker with an explicit token budget and line
// overlap.
func NewWithBudget(maxTokens, overlapLines int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = MaxTokensPerChunk
	}
	if overlapLines < 0 {
		overlapLines = 0
	}
	return &Chunker{maxTokens: maxTokens, overlapLines: overlapLines}
}

// Chunk splits text into spans. The language hint selects the break
// heuristic: prose hints split only at blank lines, code hints also split at
// dedent boundaries. Text within budget yields exactly one span; spans
// jointly cover every input line.
func (c *Chunker) Chunk(text, langHint string) []Span {
	dedentBreaks := !proseHints[langHint]

	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")

	if EstimateTokenCount(text) <= c.maxTokens {
		return []Span{{
			Index:      0,
			StartLine:  1,
			EndLine:    len(lines),
			Content:    text,
			TokenCount: EstimateTokenCount(text),
		}}
	}

	spans := make([]Span, 0)
	start := 0
	for start < len(lines) {
		end := c.findBreak(lines, start, dedentBreaks)

		content := strings.Join(lines[start:end], "\n")
		spans = append(spans, Span{
			Index:      len(spans),
			StartLine:  start + 1,
			EndLine:    end,
			Content:    content,
			TokenCount: EstimateTokenCount(content),
		})

		if end >= len(lines) {
			break
		}
		next := end - c.overlapLines
		if next <= start {
			next = end
		}
		start = next
	}

	return spans
}

// proseHints are hints whose indentation carries no structure, so only blank
// lines qualify as break points.
var proseHints = map[string]bool{
	"text":     true,
	"markdown": true,
}

// findBreak scans forward from start until the token budget is reached, then
// backtracks to the nearest break point within the window.
func (c *Chunker) findBreak(lines []string, start int, dedentBreaks bool) int {
	tokens := 0
	end := start
	for end < len(lines) {
		tokens += EstimateTokenCount(lines[end]) + 1
		if tokens > c.maxTokens && end > start {
			break
		}
		end++
	}
	if end >= len(lines) {
		return len(lines)
	}

	// Prefer a natural boundary in the second half of the window.
	lowest := start + (end-start)/2
	for i := end; i > lowest; i-- {
		if isBreakLine(lines, i, dedentBreaks) {
			return i
		}
	}
	return end
}

// isBreakLine reports whether index i is a good split point: the previous
// line is blank, or (for code) line i starts at column zero after indented
// lines.
func isBreakLine(lines []string, i int, dedentBreaks bool) bool {
	if i <= 0 || i >= len(lines) {
		return false
	}
	if strings.TrimSpace(lines[i-1]) == "" {
		return true
	}
	if !dedentBreaks {
		return false
	}
	cur := lines[i]
	prev := lines[i-1]
	return len(cur) > 0 && !isIndented(cur) && isIndented(prev)
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

// EstimateTokenCount estimates the number of tokens in a string
func EstimateTokenCount(text string) int {
	return len(text) / TokensPerChar
}

// languageByExt maps file extensions to embedding language hints.
var languageByExt = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".rs":    "rust",
	".java":  "java",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".rb":    "ruby",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
	".scala": "scala",
	".sh":    "shell",
	".bash":  "shell",
	".sql":   "sql",
	".md":    "markdown",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".html":  "html",
	".css":   "css",
}

// LanguageHint derives a language hint from a path's extension. Unknown
// extensions return "text".
func LanguageHint(p string) string {
	if lang, ok := languageByExt[strings.ToLower(path.Ext(p))]; ok {
		return lang
	}
	return "text"
}
