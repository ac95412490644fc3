package mangadex

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// ParseMangaRef extracts a manga UUID from user input. It accepts either
// a bare UUID or a MangaDex title URL such as
// https://mangadex.org/title/<uuid>/some-slug.
func ParseMangaRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty manga reference")
	}

	if id, err := uuid.Parse(ref); err == nil {
		return id.String(), nil
	}

	u, err := url.Parse(ref)
	if err == nil && u.Host != "" {
		for _, part := range strings.Split(u.Path, "/") {
			if id, err := uuid.Parse(part); err == nil {
				return id.String(), nil
			}
		}
	}

	return "", fmt.Errorf("cannot extract a manga id from %q", ref)
}
