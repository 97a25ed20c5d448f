package session

import "github.com/sid-lpcd/travel-chrome-extension/internal/model"

// MaxInputChars caps the free-text query sent to the category session.
const MaxInputChars = 2048

// NoCategoriesSentinel is the category session's reply when the user input
// contains nothing classifiable. Treated as "no hint", not as an error.
const NoCategoriesSentinel = "No categories found."

const categorySystemPrompt = `You classify travel-related requests. Given a user's free-text input, reply with a short comma-separated list of category labels describing what kinds of places the user is interested in (for example: museums, restaurants, landmarks, parks, hotels).

Rules:
1. Reply with the category labels only, separated by commas. No explanations.
2. Use lowercase single-word or short labels.
3. If the input contains no identifiable interest in places, reply with exactly: No categories found.`

const locationSystemPrompt = `You identify the geographic focus of a piece of text. Given an excerpt from a web page, reply with the single most specific real-world place name the text is about (a city, a region, or a country).

Rules:
1. Reply with the place name only. No punctuation, no explanation.
2. Prefer a city over a region, and a region over a country.
3. If no real-world place can be identified, reply with an empty line.`

const mainSystemPrompt = `You extract named places from web page text and group them by category. You always reply with a single JSON object and nothing else: no markdown, no code fences, no commentary.

The JSON object maps a category label to a list of place names found in the text, for example:
{"museums": ["Louvre"], "landmarks": ["Eiffel Tower"]}

Rules:
1. Only include places actually named in the provided text.
2. Every value must be a list of strings, even for a single place.
3. If no places are found, reply with {}.`

// systemPrompts binds each role to its fixed system prompt.
var systemPrompts = map[model.Role]string{
	model.RoleCategory: categorySystemPrompt,
	model.RoleLocation: locationSystemPrompt,
	model.RoleMain:     mainSystemPrompt,
}

// BuildGenerationInstruction assembles the main session's prompt from the
// page text and the optional category hint.
func BuildGenerationInstruction(pageText, categoryHint string) string {
	instruction := `Extract the named places from the page text below and group them by category. Respond with ONLY a valid JSON object mapping category labels to lists of place names (no markdown, no explanation).`

	if categoryHint != "" {
		instruction += "\n\nOnly include places matching these categories: " + categoryHint
	}

	return instruction + "\n\n--- PAGE TEXT ---\n" + pageText
}
