package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bull/imdb-assistant/internal/storage"
)

// RequiredColumns lists the CSV header fields every dataset must carry.
var RequiredColumns = []string{
	"Series_Title", "Released_Year", "Certificate", "Runtime",
	"Genre", "IMDB_Rating", "Meta_score", "Director",
	"Star1", "Star2", "Star3", "Star4",
	"No_of_Votes", "Gross", "Overview",
}

// MovieRecord is one dataset row. Row is its identity.
type MovieRecord struct {
	Row         int
	Title       string
	Year        string // a handful of rows carry non-numeric years
	Certificate string
	Runtime     string // e.g. "142 min"
	Genre       string // comma separated, e.g. "Crime, Drama"
	Rating      float64
	MetaScore   string // empty when unknown
	Director    string
	Stars       [4]string
	Votes       int64
	Gross       string // as published, e.g. "28,341,469"
	Overview    string
}

// Table is the in-memory dataset loaded from one file.
type Table struct {
	Path     string
	Checksum string // hex sha256 of the file bytes
	Records  []MovieRecord
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Records) }

// ID is the stable document identifier for the record.
func (m MovieRecord) ID() string { return strconv.Itoa(m.Row) }

// FormatRating renders the rating the way the dataset publishes it ("8.0").
func FormatRating(r float64) string { return strconv.FormatFloat(r, 'f', 1, 64) }

// Content renders the record as the text block that gets embedded.
// Field order and labels are fixed; the response parser relies on them.
func (m MovieRecord) Content() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", m.Title)
	fmt.Fprintf(&b, "Year: %s\n", m.Year)
	fmt.Fprintf(&b, "Certificate: %s\n", m.Certificate)
	fmt.Fprintf(&b, "Runtime: %s\n", m.Runtime)
	fmt.Fprintf(&b, "Genre: %s\n", m.Genre)
	fmt.Fprintf(&b, "IMDB Rating: %s\n", FormatRating(m.Rating))
	fmt.Fprintf(&b, "Meta Score: %s\n", m.MetaScore)
	fmt.Fprintf(&b, "Director: %s\n", m.Director)
	fmt.Fprintf(&b, "Stars: %s\n", strings.Join(m.Stars[:], ", "))
	fmt.Fprintf(&b, "Votes: %d\n", m.Votes)
	fmt.Fprintf(&b, "Gross: %s\n", m.Gross)
	fmt.Fprintf(&b, "Overview: %s", m.Overview)
	return b.String()
}

// Document converts the record into the document stored in the vector store.
// The embedding is filled in by the indexer.
func (m MovieRecord) Document(checksum string) *storage.Document {
	return &storage.Document{
		ID:      m.ID(),
		Content: m.Content(),
		Metadata: storage.DocumentMetadata{
			Title:  m.Title,
			Year:   m.Year,
			Rating: m.Rating,
		},
		SourceChecksum: checksum,
	}
}
