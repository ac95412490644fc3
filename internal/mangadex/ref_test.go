package mangadex

import "testing"

func TestParseMangaRef(t *testing.T) {
	const id = "f9c33607-9180-4ba6-b85c-e4b5faee7192"

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{name: "bare uuid", ref: id, want: id},
		{name: "uuid with whitespace", ref: "  " + id + "\n", want: id},
		{name: "title url", ref: "https://mangadex.org/title/" + id + "/some-manga-slug", want: id},
		{name: "title url without slug", ref: "https://mangadex.org/title/" + id, want: id},
		{name: "uppercase uuid normalized", ref: "F9C33607-9180-4BA6-B85C-E4B5FAEE7192", want: id},
		{name: "empty", ref: "", wantErr: true},
		{name: "not a uuid", ref: "some-manga-name", wantErr: true},
		{name: "url without uuid", ref: "https://mangadex.org/titles", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMangaRef(tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMangaRef(%q) = %q, want error", tt.ref, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMangaRef(%q) failed: %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("ParseMangaRef(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}
