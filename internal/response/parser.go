// Package response turns raw model output into movie cards.
package response

import "strings"

// MovieCard is one movie block extracted from a model answer. Fields whose
// label was absent are empty.
type MovieCard struct {
	Title    string `json:"title"`
	Year     string `json:"year"`
	Director string `json:"director"`
	Rating   string `json:"rating"`
	Stars    string `json:"stars"`
	Overview string `json:"overview"`
}

// BlockDelimiter separates concatenated movie blocks in model output.
const BlockDelimiter = "Title:"

// fieldLabels is checked in order; the first label found on a line wins.
var fieldLabels = []struct {
	label string
	set   func(*MovieCard, string)
}{
	{"Year:", func(c *MovieCard, v string) { c.Year = v }},
	{"Director:", func(c *MovieCard, v string) { c.Director = v }},
	{"IMDB Rating:", func(c *MovieCard, v string) { c.Rating = v }},
	{"Stars:", func(c *MovieCard, v string) { c.Stars = v }},
	{"Overview:", func(c *MovieCard, v string) { c.Overview = v }},
}

// Parse splits raw on "Title:" and scans each block line by line for the
// known labels. Text before the first "Title:" and blank blocks are
// dropped. Lines that match no label are ignored, so anything off-template
// (multi-line overviews, renamed labels) is lost without error.
func Parse(raw string) []MovieCard {
	blocks := strings.Split(raw, BlockDelimiter)
	if len(blocks) == 0 {
		return nil
	}

	var cards []MovieCard
	for _, block := range blocks[1:] {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		lines := strings.Split(block, "\n")
		card := MovieCard{Title: strings.TrimSpace(lines[0])}

		for _, line := range lines {
			for _, f := range fieldLabels {
				if strings.Contains(line, f.label) {
					f.set(&card, strings.TrimSpace(strings.ReplaceAll(line, f.label, "")))
					break
				}
			}
		}

		cards = append(cards, card)
	}

	return cards
}
