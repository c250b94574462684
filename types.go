package golpo

// Story is one row of the story catalog. Rows are produced by the
// content-management flow and only read here.
type Story struct {
	ID         string      `json:"id"`
	Slug       string      `json:"slug,omitempty"`
	Title      string      `json:"title"`
	Author     string      `json:"author,omitempty"`
	Category   string      `json:"category,omitempty"`
	Tags       []string    `json:"tags,omitempty"`
	Status     string      `json:"status,omitempty"`
	Date       string      `json:"date,omitempty"`
	UpdatedAt  string      `json:"updated_at,omitempty"`
	CoverImage string      `json:"cover_image,omitempty"`
	Content    string      `json:"content,omitempty"`
	Excerpt    string      `json:"excerpt,omitempty"`
	Parts      []StoryPart `json:"parts,omitempty"`
}

// StoryPart is one installment of a multi-part story.
type StoryPart struct {
	Title   string `json:"title"`
	Slug    string `json:"slug,omitempty"`
	Content string `json:"content,omitempty"`
}

// LegacyMeta is the JSON blob older rows keep inside their excerpt, between
// legacyMetaStart and legacyMetaEnd.
type LegacyMeta struct {
	Slug       string      `json:"slug"`
	Excerpt    string      `json:"excerpt"`
	CoverImage string      `json:"cover_image"`
	Parts      []StoryPart `json:"parts"`
}
