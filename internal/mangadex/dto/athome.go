package dto

// AtHomeResponse is the response from /at-home/server/{chapterId},
// which names the image host serving a chapter's pages.
type AtHomeResponse struct {
	Result  string        `json:"result"`
	BaseURL string        `json:"baseUrl"`
	Chapter AtHomeChapter `json:"chapter"`
}

// AtHomeChapter lists the page filenames for a chapter.
type AtHomeChapter struct {
	Hash      string   `json:"hash"`
	Data      []string `json:"data"`
	DataSaver []string `json:"dataSaver"`
}

// MangaResponse is the response from /manga/{id}.
type MangaResponse struct {
	Result string    `json:"result"`
	Data   MangaData `json:"data"`
}

// MangaData holds the manga entity.
type MangaData struct {
	ID         string          `json:"id"`
	Attributes MangaAttributes `json:"attributes"`
}

// MangaAttributes carries the multilingual title map.
type MangaAttributes struct {
	Title map[string]string `json:"title"`
}

// PreferredTitle picks a display title: English first, then Japanese,
// then any available value.
func (ma MangaAttributes) PreferredTitle() string {
	if t := ma.Title["en"]; t != "" {
		return t
	}
	if t := ma.Title["ja"]; t != "" {
		return t
	}
	for _, t := range ma.Title {
		if t != "" {
			return t
		}
	}
	return ""
}

// ChapterResponse is the response from /chapter/{id}.
type ChapterResponse struct {
	Result string      `json:"result"`
	Data   ChapterData `json:"data"`
}
