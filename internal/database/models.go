package database

// SourceType selects the fetch strategy for a source.
type SourceType string

const (
	SourceFeed    SourceType = "feed"
	SourceWebpage SourceType = "webpage"
	SourceChannel SourceType = "channel"
)

// ValidSourceType reports whether t is a recognized source type.
func ValidSourceType(t SourceType) bool {
	switch t {
	case SourceFeed, SourceWebpage, SourceChannel:
		return true
	}
	return false
}

// Article moderation states. Pending is the sole initial state; rejected
// and published are terminal.
const (
	StatusPending   = "pending"
	StatusRejected  = "rejected"
	StatusPublished = "published"
)

// Source is a configured content origin that is periodically fetched.
type Source struct {
	ID        int64
	Name      string
	URL       string
	Type      SourceType
	IsActive  bool
	LastCheck *string
	CreatedAt *string
}

// Article is a discovered content item moving through the moderation
// lifecycle. Rewritten fields and the image reference stay nil until a
// transformation runs.
type Article struct {
	ID               int64
	SourceID         int64
	SourceName       string
	OriginalTitle    string
	OriginalContent  string
	OriginalURL      string
	RewrittenTitle   *string
	RewrittenContent *string
	Hashtags         []string
	ImageRef         *string
	Status           string
	CreatedAt        *string
	PublishedAt      *string
}

// Title returns the rewritten title when present, the original otherwise.
// Value receivers keep both accessors callable from templates iterating
// over article slices.
func (a Article) Title() string {
	if a.RewrittenTitle != nil && *a.RewrittenTitle != "" {
		return *a.RewrittenTitle
	}
	return a.OriginalTitle
}

// Content returns the rewritten content when present, the original otherwise.
func (a Article) Content() string {
	if a.RewrittenContent != nil && *a.RewrittenContent != "" {
		return *a.RewrittenContent
	}
	return a.OriginalContent
}

// Stats contains aggregate database statistics.
type Stats struct {
	Sources       int
	ActiveSources int
	Articles      int
	Pending       int
	Published     int
	Rejected      int
	Keywords      int
}
