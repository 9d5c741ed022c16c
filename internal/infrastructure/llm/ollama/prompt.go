package ollama

import "unicode/utf8"

const graphExtractionSystemPrompt = `You are an information extraction engine.
From the document you receive, extract named entities and the relationships between them.
Return a strict JSON object with exactly two keys:
entities: array of objects with keys name (string), type (string), description (string).
relationships: array of objects with keys subject (string), predicate (string), object (string).
Subject and object of every relationship must be entity names from the entities array.
No markdown, no commentary, no extra keys.`

const maxExtractionChars = 12000

// truncateForExtraction caps the document text sent to the extraction model,
// backing off to a rune boundary so the tail is never invalid UTF-8.
func truncateForExtraction(text string) string {
	if len(text) <= maxExtractionChars {
		return text
	}
	cut := maxExtractionChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
