// Package prompt assembles the instruction sent to the chat model.
package prompt

import "strings"

// Fallback is the sentence used whenever the dataset has no answer.
const Fallback = "The dataset does not contain this information."

// RecordSeparator joins retrieved records inside the prompt.
const RecordSeparator = "\n\n"

// Template is the fixed instruction. {records} and {question} are
// substituted in a single pass.
const Template = `
You are a structured movie assistant.

When answering:
- Use ONLY given records.
- Format every movie like:

Title:
Year:
Director:
IMDB Rating:
Stars:
Overview:

If not found:
"` + Fallback + `"

Movie records:
{records}

User question:
{question}
`

// Build substitutes the joined records and the question into Template.
// Nothing checks that the model honours the format.
func Build(records []string, question string) string {
	r := strings.NewReplacer(
		"{records}", strings.Join(records, RecordSeparator),
		"{question}", question,
	)
	return r.Replace(Template)
}
