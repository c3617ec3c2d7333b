package storage

import "strings"

// Sentence handling for interactive writes. A file is an ordered sequence
// of sentences delimited by '.', '!' or '?'. The split is right-inclusive:
// each delimiter stays with the text before it, and trailing undelimited
// text forms a final incomplete sentence.

// isSentenceDelim reports whether b terminates a sentence.
func isSentenceDelim(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

// endsWithDelim reports whether the last byte of text is a delimiter.
func endsWithDelim(text string) bool {
	return len(text) > 0 && isSentenceDelim(text[len(text)-1])
}

// splitSentences splits text right-inclusively. Leading spaces of each
// fragment are dropped so that rejoining with single spaces reproduces a
// normalized file. An empty text yields no sentences.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		if isSentenceDelim(text[i]) {
			sentences = append(sentences, strings.TrimLeft(text[start:i+1], " "))
			start = i + 1
		}
	}
	if start < len(text) {
		tail := strings.TrimLeft(text[start:], " ")
		if tail != "" {
			sentences = append(sentences, tail)
		}
	}
	return sentences
}

// joinSentences reassembles a file from its sentence array with a single
// space between sentences.
func joinSentences(sentences []string) string {
	return strings.Join(sentences, " ")
}

// maxSentenceIndex returns the highest index WRITE may target for the
// given content: the sentence after the last when the file ends with a
// delimiter, the last (incomplete) sentence otherwise. Empty content is
// the caller's special case (only index 0).
func maxSentenceIndex(content string) int {
	n := len(splitSentences(content))
	if endsWithDelim(content) {
		return n
	}
	return n - 1
}

// insertWords places text at word index wi of sentence (0 ≤ wi ≤ word
// count) and returns the reassembled sentence. The bool is false when wi
// is out of range.
func insertWords(sentence string, wi int, text string) (string, bool) {
	words := strings.Fields(sentence)
	if wi < 0 || wi > len(words) {
		return "", false
	}
	parts := make([]string, 0, len(words)+1)
	parts = append(parts, words[:wi]...)
	parts = append(parts, text)
	parts = append(parts, words[wi:]...)
	return strings.Join(parts, " "), true
}
