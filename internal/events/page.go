package events

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"frieddie/internal/fault"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher returns the HTML of a page. HTTPFetcher does a plain GET; the
// browser package renders script-heavy pages first.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// PageSource scrapes an HTML listing where each event is an element carrying
// a data-event attribute:
//
//	<article data-event="42">
//	  <a class="title" href="/e/42">Sunrise hike</a>
//	  <span class="category">hike</span>
//	  <span class="location">Malmö, Sweden</span>
//	  <time datetime="2026-10-24T07:00:00Z">Sat</time>
//	</article>
type PageSource struct {
	pageURL string
	fetcher Fetcher
}

func NewPageSource(pageURL string, fetcher Fetcher) *PageSource {
	if fetcher == nil {
		fetcher = &HTTPFetcher{}
	}
	return &PageSource{pageURL: pageURL, fetcher: fetcher}
}

func (s *PageSource) Find(ctx context.Context, location, category string) ([]Event, error) {
	html, err := s.fetcher.Fetch(ctx, s.pageURL)
	if err != nil {
		return nil, fault.FromContext(ctx, fault.KindBackendCallFailed, "fetch events page", err)
	}
	all, err := ParseListing(html, s.pageURL)
	if err != nil {
		return nil, fault.BackendCallFailed("parse events page", err)
	}

	out := make([]Event, 0, len(all))
	for _, e := range all {
		if matches(e, location, category) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ParseListing extracts every [data-event] card from html. Relative links are
// resolved against base.
func ParseListing(html, base string) ([]Event, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	baseURL, _ := url.Parse(base)

	var out []Event
	doc.Find("[data-event]").Each(func(_ int, card *goquery.Selection) {
		e := Event{
			ID:       strings.TrimSpace(card.AttrOr("data-event", "")),
			Title:    text(card.Find(".title")),
			Category: text(card.Find(".category")),
			Location: text(card.Find(".location")),
		}
		if t := card.Find("time").First(); t.Length() > 0 {
			e.StartsAt = t.AttrOr("datetime", text(t))
		}
		if href, ok := card.Find("a[href]").First().Attr("href"); ok {
			e.URL = resolve(baseURL, href)
		}
		if e.Title == "" {
			return
		}
		out = append(out, e)
	})
	return out, nil
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.First().Text()), " ")
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

type HTTPFetcher struct {
	Client *http.Client
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: HTTP %d", pageURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
