package dto

import (
	"time"

	"tankobon/internal/model"
)

// FeedResponse is the paginated response from /manga/{id}/feed.
type FeedResponse struct {
	Result string        `json:"result"`
	Data   []ChapterData `json:"data"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
	Total  int           `json:"total"`
}

// ChapterData is one chapter entry as returned by the API.
type ChapterData struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Attributes    ChapterAttributes `json:"attributes"`
	Relationships []Relationship    `json:"relationships"`
}

// ChapterAttributes carries the chapter metadata the pipeline cares about.
// Volume and Chapter are pointers because the API reports null for
// uploads without volume or chapter numbering.
type ChapterAttributes struct {
	Volume             *string   `json:"volume"`
	Chapter            *string   `json:"chapter"`
	Title              string    `json:"title"`
	TranslatedLanguage string    `json:"translatedLanguage"`
	Pages              int       `json:"pages"`
	Version            int       `json:"version"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Relationship links a chapter to related entities such as its manga.
type Relationship struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// MangaID returns the id of the related manga, or empty if absent.
func (cd *ChapterData) MangaID() string {
	for _, rel := range cd.Relationships {
		if rel.Type == "manga" {
			return rel.ID
		}
	}
	return ""
}

// HasChapterNumber reports whether the upload carries a chapter number at
// all. Uploads without one are dropped at the resolver boundary.
func (cd *ChapterData) HasChapterNumber() bool {
	return cd.Attributes.Chapter != nil && *cd.Attributes.Chapter != ""
}

// ToChapter converts the raw API shape into the typed model. No component
// downstream of the resolver sees raw response data.
func (cd *ChapterData) ToChapter() *model.Chapter {
	var number, volume string
	if cd.Attributes.Chapter != nil {
		number = *cd.Attributes.Chapter
	}
	if cd.Attributes.Volume != nil {
		volume = *cd.Attributes.Volume
	}

	return &model.Chapter{
		ID:        cd.ID,
		Number:    number,
		Volume:    volume,
		Version:   cd.Attributes.Version,
		CreatedAt: cd.Attributes.CreatedAt,
		Language:  cd.Attributes.TranslatedLanguage,
	}
}
