// Package recommend answers "more like this" queries over analyzed songs.
//
// The Engine loads the query song's stored embedding and asks the song
// repository for its nearest neighbours by cosine similarity. Songs that
// were never ingested, or whose embedding has not been generated yet, get
// distinct errors so callers can tell "search for it first" apart from
// "try again shortly".
package recommend
