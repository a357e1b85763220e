package scrape

import "strings"

// Matcher checks text against the configured relevance keywords.
// An empty keyword set disables filtering: everything is relevant.
type Matcher struct {
	keywords []string
}

// NewMatcher builds a matcher over a lower-cased copy of the keywords.
func NewMatcher(keywords []string) *Matcher {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}
	return &Matcher{keywords: lowered}
}

// IsRelevant reports whether any keyword appears in the text,
// case-insensitively. True when the keyword set is empty.
func (m *Matcher) IsRelevant(text string) bool {
	if len(m.keywords) == 0 {
		return true
	}

	lower := strings.ToLower(text)
	for _, kw := range m.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
