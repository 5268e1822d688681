package storage

// Document is one indexed movie row: the rendered text block plus a small
// metadata tuple. ID is the source row index as a string.
type Document struct {
	ID             string
	Content        string
	Metadata       DocumentMetadata
	SourceChecksum string    // checksum of the dataset file the row came from
	Embedding      []float32 // set before upsert; not returned by search
}

// DocumentMetadata is the payload kept next to the content.
type DocumentMetadata struct {
	Title  string
	Year   string
	Rating float64
}

// ScoredDocument is a search hit.
type ScoredDocument struct {
	*Document
	Score float64
}

// DefaultCollectionName matches the collection the dataset has always been indexed into.
const DefaultCollectionName = "imdb_top_1000"
