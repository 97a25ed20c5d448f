// Package textsource retrieves and cleans the text of a web page: the Go
// counterpart of the extension's content-script collaborator. The page is
// fetched over HTTP, reduced to visible body text, whitespace-normalized and
// restricted to a plain character set, with the first hundred tokens kept as
// the location excerpt.
package textsource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sid-lpcd/travel-chrome-extension/internal/model"
)

// ErrPageTextUnavailable reports an exhausted retry budget. The pipeline
// proceeds with an empty corpus rather than failing outright.
var ErrPageTextUnavailable = errors.New("page text unavailable after retries")

const excerptTokens = 100

var (
	spaceRe    = regexp.MustCompile(`\s+`)
	disallowRe = regexp.MustCompile(`[^a-zA-Z0-9.,?! ]`)
)

// Source fetches page text with a fixed retry budget.
type Source struct {
	HTTPClient *http.Client
	Attempts   int
	Delay      time.Duration
	log        *zap.Logger
}

// NewSource creates a Source retrying up to attempts times with a fixed
// inter-attempt delay.
func NewSource(attempts int, delay time.Duration, log *zap.Logger) *Source {
	if attempts < 1 {
		attempts = 1
	}
	return &Source{
		HTTPClient: &http.Client{},
		Attempts:   attempts,
		Delay:      delay,
		log:        log,
	}
}

// Fetch retrieves the cleaned text of the page at url. Each attempt re-issues
// the full request; after the budget is spent the PageText is empty and
// ErrPageTextUnavailable is returned.
func (s *Source) Fetch(ctx context.Context, url string) (model.PageText, error) {
	var lastErr error
	for attempt := 1; attempt <= s.Attempts; attempt++ {
		pt, err := s.fetchOnce(ctx, url)
		if err == nil {
			return pt, nil
		}
		lastErr = err
		s.log.Warn("page text fetch failed",
			zap.String("url", url), zap.Int("attempt", attempt), zap.Error(err))

		if attempt < s.Attempts {
			select {
			case <-ctx.Done():
				return model.PageText{}, ctx.Err()
			case <-time.After(s.Delay):
			}
		}
	}
	return model.PageText{}, fmt.Errorf("%w: %v", ErrPageTextUnavailable, lastErr)
}

func (s *Source) fetchOnce(ctx context.Context, url string) (model.PageText, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return model.PageText{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return model.PageText{}, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return model.PageText{}, fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return model.PageText{}, fmt.Errorf("parsing page HTML: %w", err)
	}

	text := CleanText(ExtractBodyText(doc))
	if text == "" {
		return model.PageText{}, errors.New("page produced no text")
	}

	return model.PageText{
		FullText:        text,
		LocationExcerpt: LocationExcerpt(text),
	}, nil
}

// ExtractBodyText pulls visible text from a page document, skipping script
// and style content.
func ExtractBodyText(doc *goquery.Document) string {
	doc.Find("script, style, noscript").Remove()
	return doc.Find("body").Text()
}

// CleanText normalizes whitespace to single spaces and strips every
// character outside [a-zA-Z0-9.,?! ].
func CleanText(raw string) string {
	text := strings.TrimSpace(raw)
	text = spaceRe.ReplaceAllString(text, " ")
	return disallowRe.ReplaceAllString(text, "")
}

// LocationExcerpt returns the first hundred whitespace-delimited tokens of
// cleaned text.
func LocationExcerpt(text string) string {
	words := strings.Split(text, " ")
	if len(words) > excerptTokens {
		words = words[:excerptTokens]
	}
	return strings.Join(words, " ")
}
