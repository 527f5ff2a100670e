package badger

import "fmt"

// Key prefixes for different data types
const (
	songRecordPrefix   = "songrec"
	songLanguagePrefix = "songlang"
	queryCachePrefix   = "qcache"
)

// makeSongKey generates a key for a song record by its upstream id.
func makeSongKey(songID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", songRecordPrefix, songID))
}

// makeLanguageKey generates a composite key for the language index.
// Format: prefix:language:songID
func makeLanguageKey(language, songID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", songLanguagePrefix, language, songID))
}

// makeQueryCacheKey generates a key for a cached upstream response.
func makeQueryCacheKey(fingerprint string) []byte {
	return []byte(fmt.Sprintf("%s:%s", queryCachePrefix, fingerprint))
}
