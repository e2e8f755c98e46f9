package stt

import (
	"regexp"
	"strings"
)

// Whisper marks non-speech as "[BLANK_AUDIO]", "(music)", "*cough*" and the
// like.
var annotationRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)|\*[^*]*\*`)

// Clean strips non-speech annotations and collapses whitespace.
func Clean(text string) string {
	text = annotationRe.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}
