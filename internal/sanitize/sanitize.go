// Package sanitize cleans assistant replies before they are persisted or
// shown: citation markers and document attributions are stripped, and
// filler "checking the files" turns are dropped outright.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Replies consisting of retrieval narration carry no information for the
// user and are dropped entirely.
var dropPhrases = []string{
	"let me check the uploaded files",
	"please hold on",
	"let me verify your query",
	"i will check the uploaded files",
	"i will check uploaded files",
	"i will check the files",
	"i will check files",
	"i will check the document",
	"i will check document",
	"i will check your document",
	"i will check your file",
	"i will check your files",
	"i will check for relevant information",
}

var (
	reMarkerCitation = regexp.MustCompile(`【\d+:?\d*†source】`)
	reNumberCitation = regexp.MustCompile(`\[\d+\]`)
	reSourceTag      = regexp.MustCompile(`(?i)\[source\]`)
	reAttribution    = regexp.MustCompile(`(?i)\b(?:according to|as stated in|as mentioned in|based on|as per|per)\s+the\s+(?:documents?|files?|uploaded\s+\w+|attached\s+\w+)\s*,?\s*`)
	reParenRef       = regexp.MustCompile(`(?i)\((?:see |ref:|reference:|source:)[^)]*\)`)
	reParenURL       = regexp.MustCompile(`\(https?://[^)]*\)`)
	reHTMLTag        = regexp.MustCompile(`(?i)</?(?:p|div|span|br|ul|ol|li|table|tr|td|th|h[1-6]|b|i|strong|em|a)\b[^>]*>`)

	reSpaces        = regexp.MustCompile(`[ \t]+`)
	reLineLeading   = regexp.MustCompile(`\n[ \t]+`)
	reLineTrailing  = regexp.MustCompile(`[ \t]+\n`)
	reBlankLines    = regexp.MustCompile(`\n{3,}`)
	reSpacingBefore = regexp.MustCompile(`\s+([.,;:)])`)
	reSpacingAfter  = regexp.MustCompile(`\(\s+`)
)

// Clean sanitizes one assistant reply. The second return value is false
// when the reply must be dropped: either it is pure retrieval narration,
// or nothing is left of it after cleaning.
func Clean(content string) (string, bool) {
	if content == "" {
		return "", false
	}
	if shouldDrop(content) {
		return "", false
	}

	if reHTMLTag.MatchString(content) {
		content = htmlToText(content)
	}

	cleaned := stripReferences(content)
	if cleaned == "" {
		return "", false
	}
	return cleaned, true
}

func shouldDrop(content string) bool {
	lower := strings.ToLower(content)
	for _, phrase := range dropPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	// Scripted intro followed by a checking promise
	return strings.Contains(lower, "to assist you with your inquiry") &&
		strings.Contains(lower, "let me check")
}

func stripReferences(content string) string {
	s := content
	s = reMarkerCitation.ReplaceAllString(s, "")
	s = reNumberCitation.ReplaceAllString(s, "")
	s = reSourceTag.ReplaceAllString(s, "")
	s = reAttribution.ReplaceAllString(s, "")
	s = reParenRef.ReplaceAllString(s, "")
	s = reParenURL.ReplaceAllString(s, "")

	s = reSpaces.ReplaceAllString(s, " ")
	s = reLineLeading.ReplaceAllString(s, "\n")
	s = reLineTrailing.ReplaceAllString(s, "\n")
	s = reBlankLines.ReplaceAllString(s, "\n\n")
	s = reSpacingBefore.ReplaceAllString(s, "$1")
	s = reSpacingAfter.ReplaceAllString(s, "(")

	return strings.TrimSpace(s)
}

// htmlToText extracts the visible text when the provider answers in
// markup. Parse failures fall back to the raw content.
func htmlToText(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}
	return doc.Text()
}
