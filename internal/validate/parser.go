// Package validate parses raw model replies into structured data. The model
// is only probabilistically well-behaved, so the strict parse returns a
// tagged Valid/Invalid result instead of an error: malformed output is an
// expected outcome the caller retries on, not an exception.
package validate

import (
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/sid-lpcd/travel-chrome-extension/internal/model"
)

var markupRe = regexp.MustCompile(`<[^>]*>`)

// Result is the outcome of a strict CategoryMap parse.
type Result struct {
	Valid  bool
	Map    model.CategoryMap
	Reason string
}

func invalid(reason string) Result {
	return Result{Reason: reason}
}

// ParseCategoryMap strips code-fence wrappers and parses raw strictly as a
// JSON object mapping category labels to lists of place-name strings, in key
// encounter order. Duplicate keys, non-list values, non-string elements and
// trailing content all yield Invalid. Markup is stripped from leaf strings.
func ParseCategoryMap(raw string) Result {
	text := stripCodeFences(raw)
	if text == "" {
		return invalid("empty reply")
	}

	dec := json.NewDecoder(strings.NewReader(text))

	tok, err := dec.Token()
	if err != nil {
		return invalid("not JSON: " + err.Error())
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return invalid("not a JSON object")
	}

	cm := model.CategoryMap{Entries: make(map[string][]string)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return invalid("reading key: " + err.Error())
		}
		key, ok := keyTok.(string)
		if !ok {
			return invalid("non-string key")
		}
		if _, dup := cm.Entries[key]; dup {
			return invalid("duplicate key " + key)
		}

		var names []string
		if err := dec.Decode(&names); err != nil {
			return invalid("value for " + key + " is not a list of strings")
		}

		cleaned := make([]string, 0, len(names))
		for _, n := range names {
			n = strings.TrimSpace(markupRe.ReplaceAllString(n, ""))
			if n != "" {
				cleaned = append(cleaned, n)
			}
		}

		cm.Keys = append(cm.Keys, key)
		cm.Entries[key] = cleaned
	}

	if _, err := dec.Token(); err != nil {
		return invalid("unterminated object: " + err.Error())
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return invalid("trailing content after object")
	}

	return Result{Valid: true, Map: cm}
}

// ParseCategoryList is the lenient counterpart for the category session's
// reply: a comma or newline separated list of labels. Absence of meaningful
// content yields nil, never an error.
func ParseCategoryList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var labels []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n'
	}) {
		part = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "- "))
		if part != "" {
			labels = append(labels, part)
		}
	}
	return labels
}

// stripCodeFences removes a surrounding markdown code fence (```json ... ```
// or plain ```) when present.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// Drop the opening fence line, including any language tag.
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
