// Package hn parses Hacker News pages: top-story discovery from the front
// page and outbound link extraction from comment threads. Pure parsing, no
// network access.
package hn

import (
	"bytes"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// DefaultBaseURL is the aggregator's front page.
const DefaultBaseURL = "https://news.ycombinator.com"

// Story is one front-page item.
type Story struct {
	ID    string
	Title string
	URL   string
}

// CommentsURL builds the comment-thread URL for a story ID.
func CommentsURL(baseURL, storyID string) string {
	return fmt.Sprintf("%s/item?id=%s", baseURL, storyID)
}

// ParseFrontPage extracts up to limit top stories from front-page HTML.
// Relative story hrefs (Ask HN, internal items) resolve against baseURL.
func ParseFrontPage(body []byte, baseURL string, limit int) ([]Story, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse front page: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	var stories []Story
	doc.Find("tr.athing").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if limit > 0 && len(stories) >= limit {
			return false
		}
		id, ok := row.Attr("id")
		if !ok || id == "" {
			return true
		}
		link := row.Find("a.storylink").First()
		if link.Length() == 0 {
			// Newer front-page markup wraps the anchor in a titleline span.
			link = row.Find("span.titleline a").First()
		}
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return true
		}
		resolved := resolve(base, href)
		if resolved == "" {
			return true
		}
		stories = append(stories, Story{
			ID:    id,
			Title: link.Text(),
			URL:   resolved,
		})
		return true
	})
	return stories, nil
}

// ExtractCommentLinks returns every outbound link embedded in the thread's
// comments, in document order. Duplicates are preserved: the same URL linked
// from two comments is two entries.
func ExtractCommentLinks(body []byte, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse comments page: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	var links []string
	doc.Find(`a[rel="nofollow"]`).Each(func(_ int, anchor *goquery.Selection) {
		href, ok := anchor.Attr("href")
		if !ok || href == "" {
			return
		}
		if resolved := resolve(base, href); resolved != "" {
			links = append(links, resolved)
		}
	})
	return links, nil
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}
