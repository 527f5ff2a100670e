package ai

import "strings"

// SongText builds the normalized text a song is embedded from.
// Fields are joined in a fixed order (name, artist, album, language) with
// single spaces; empty fields are omitted rather than inserted as blank
// tokens, so "Believer" by "Imagine Dragons" with no album embeds as
// "Believer Imagine Dragons" and not "Believer Imagine Dragons  ".
func SongText(name, artist, album, language string) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{name, artist, album, language} {
		part = strings.TrimSpace(part)
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}
