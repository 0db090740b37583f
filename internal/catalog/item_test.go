package catalog

import "testing"

func TestMovieItem_Key(t *testing.T) {
	tests := []struct {
		name string
		item MovieItem
		want string
	}{
		{"tmdb id", MovieItem{ID: 603, Title: "The Matrix"}, "tmdb:603"},
		{"title fallback", MovieItem{Title: "Oldboy", Year: "2003"}, "title:oldboy|2003"},
		{"title is lowercased", MovieItem{Title: "OLDBOY", Year: "2003"}, "title:oldboy|2003"},
		{"missing year", MovieItem{Title: "Oldboy"}, "title:oldboy|"},
		{"zero id uses title", MovieItem{ID: 0, Title: "A", Year: "1999"}, "title:a|1999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.Key(); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMovieItem_KeyCollision(t *testing.T) {
	a := MovieItem{Title: "The Matrix", Year: "1999"}
	b := MovieItem{Title: "the matrix", Year: "1999"}
	if a.Key() != b.Key() {
		t.Errorf("case variants should share a key: %q != %q", a.Key(), b.Key())
	}

	c := MovieItem{ID: 603, Title: "The Matrix", Year: "1999"}
	if a.Key() == c.Key() {
		t.Error("id-keyed and title-keyed items should not collide")
	}
}
