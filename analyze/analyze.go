// Package analyze derives reading metrics and plain-text excerpts from raw
// Markdown. Every function is pure; nothing here is cached.
package analyze

import (
	"math"
	"regexp"
	"strings"
)

const (
	// ExcerptLength is the number of characters an excerpt keeps.
	ExcerptLength = 180
	// Ellipsis marks a truncated excerpt.
	Ellipsis = "…"

	// LatinWordsPerMinute is the reading speed for Latin-script words.
	LatinWordsPerMinute = 200.0
	// CJKCharsPerMinute is the reading speed for CJK ideographs.
	CJKCharsPerMinute = 400.0
)

var (
	reLatinWord  = regexp.MustCompile(`[A-Za-z0-9']+`)
	reCode       = regexp.MustCompile("(?s)`{1,3}.*?`{1,3}")
	markupTokens = strings.NewReplacer(
		"#", " ",
		">", " ",
		"*", " ",
		"_", " ",
		`\`, " ",
		"-", " ",
	)
)

// Metrics bundles the derived values shown next to a post.
type Metrics struct {
	Words          int
	ReadingMinutes int
	Excerpt        string
}

// Measure computes all metrics for text.
func Measure(text string) Metrics {
	latin, cjk := counts(text)
	return Metrics{
		Words:          latin + cjk,
		ReadingMinutes: readingTime(latin, cjk),
		Excerpt:        Excerpt(text),
	}
}

// WordCount returns the number of Latin word runs plus the number of CJK
// ideographs, each ideograph counting as one word.
func WordCount(text string) int {
	latin, cjk := counts(text)
	return latin + cjk
}

// ReadingTime estimates whole minutes to read text, rounded up. It never
// reports less than one minute, also for empty text.
func ReadingTime(text string) int {
	return readingTime(counts(text))
}

func readingTime(latin, cjk int) int {
	minutes := float64(latin)/LatinWordsPerMinute + float64(cjk)/CJKCharsPerMinute
	return max(1, int(math.Ceil(minutes)))
}

func counts(text string) (latin, cjk int) {
	latin = len(reLatinWord.FindAllStringIndex(text, -1))
	for _, r := range text {
		if isCJK(r) {
			cjk++
		}
	}
	return latin, cjk
}

// isCJK reports whether r is in the CJK Unified Ideographs block.
func isCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// Excerpt returns a plain-text preview of text: code spans removed, markup
// punctuation blanked, whitespace collapsed, cut to ExcerptLength characters
// with Ellipsis appended when something was cut.
func Excerpt(text string) string {
	t := strings.TrimSpace(text)
	t = reCode.ReplaceAllString(t, "")
	t = markupTokens.Replace(t)
	t = strings.Join(strings.Fields(t), " ")

	runes := []rune(t)
	if len(runes) <= ExcerptLength {
		return t
	}
	return string(runes[:ExcerptLength]) + Ellipsis
}
