package extract

import "strings"

const (
	minWordsPerPage = 50
	minChars        = 100
	minWords        = 50
)

// IsProbablyScanned reports whether doc averages so few words per page that
// it is likely image-based. A document without pages counts as scanned.
func IsProbablyScanned(doc *Document) bool {
	if doc.PageCount == 0 {
		return true
	}
	return float64(doc.TotalWords)/float64(doc.PageCount) < minWordsPerPage
}

// Quality is the outcome of CheckText.
type Quality struct {
	Valid     bool
	Issues    []string
	WordCount int
}

// CheckText reports problems that make text a poor source for questions.
func CheckText(text string) Quality {
	var issues []string
	if strings.TrimSpace(text) == "" {
		issues = append(issues, "No text extracted")
	}
	if len(text) < minChars {
		issues = append(issues, "Very little text extracted (less than 100 characters)")
	}
	words := CountWords(text)
	if words < minWords {
		issues = append(issues, "Too few words extracted - the document might be scanned or image-based")
	}
	return Quality{Valid: len(issues) == 0, Issues: issues, WordCount: words}
}
