// Package letterboxd extracts film-list data from Letterboxd profile pages.
package letterboxd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/avast/retry-go/v4"

	"letterwatch/internal/ratelimit"
	"letterwatch/models"
)

// notFoundMarker appears in the body of Letterboxd's soft error page.
const notFoundMarker = "Sorry, we can't find the page you've requested"

// filmEntrySelector matches one film entry on a grid listing page.
const filmEntrySelector = "li.griditem .react-component[data-film-id]"

const fetchAttempts = 2

// Options configures a Client.
type Options struct {
	BaseURL        string
	UserAgent      string
	ProfileTimeout time.Duration
	ListTimeout    time.Duration
}

// Client scrapes Letterboxd pages. Every outbound request passes through the
// shared rate-limit gate, so concurrent analyses cannot exceed the configured
// request spacing.
type Client struct {
	baseURL       string
	userAgent     string
	gate          *ratelimit.Gate
	profileClient *http.Client
	listClient    *http.Client
}

// NewClient creates a Letterboxd client sharing the given request gate.
func NewClient(opts Options, gate *ratelimit.Gate) *Client {
	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		userAgent:     opts.UserAgent,
		gate:          gate,
		profileClient: &http.Client{Timeout: opts.ProfileTimeout},
		listClient:    &http.Client{Timeout: opts.ListTimeout},
	}
}

// ValidateUser checks whether a username exists and extracts its display
// name, falling back to the username itself when the profile has none.
func (c *Client) ValidateUser(ctx context.Context, username string) (models.ProfileInfo, error) {
	url := fmt.Sprintf("%s/%s/", c.baseURL, username)

	doc, err := c.getPage(ctx, c.profileClient, url)
	if err != nil {
		if errors.Is(err, errPageNotFound) {
			return models.ProfileInfo{Exists: false}, nil
		}
		return models.ProfileInfo{}, err
	}

	if strings.Contains(doc.Find("body").Text(), notFoundMarker) {
		log.Printf("[letterboxd] user %s: error page marker found, user does not exist", username)
		return models.ProfileInfo{Exists: false}, nil
	}

	displayName := strings.TrimSpace(doc.Find(".profile-person .name").First().Text())
	if displayName == "" {
		displayName = username
	}

	return models.ProfileInfo{Exists: true, DisplayName: displayName}, nil
}

// FetchWatchlist retrieves a user's complete watchlist across all pages.
// Pagination stops at the first page that yields zero entries. Entries
// missing a slug or an id are skipped.
func (c *Client) FetchWatchlist(ctx context.Context, username string) ([]models.FilmRecord, error) {
	log.Printf("[letterboxd] fetching watchlist for %s", username)

	var watchlist []models.FilmRecord
	page := 1

	for {
		url := fmt.Sprintf("%s/%s/watchlist/page/%d/", c.baseURL, username, page)

		doc, err := c.getPage(ctx, c.listClient, url)
		if err != nil {
			if errors.Is(err, errPageNotFound) {
				if page == 1 {
					return nil, fmt.Errorf("%s: %w", username, ErrUserNotFound)
				}
				// Past the last page.
				break
			}
			return nil, fmt.Errorf("fetch watchlist for %s: %w", username, err)
		}

		found := 0
		doc.Find(filmEntrySelector).Each(func(_ int, sel *goquery.Selection) {
			slug, _ := sel.Attr("data-item-slug")
			title, _ := sel.Attr("data-item-name")
			id, _ := sel.Attr("data-film-id")

			// Entries without both a slug and an id are malformed; skip
			// them rather than failing the page.
			if slug == "" || id == "" {
				return
			}

			watchlist = append(watchlist, models.FilmRecord{
				ID:    models.NormalizeFilmID(id),
				Slug:  slug,
				Title: title,
			})
			found++
		})

		if found == 0 {
			break
		}
		page++
	}

	log.Printf("[letterboxd] watchlist for %s: %d films across %d pages", username, len(watchlist), page-1)
	return watchlist, nil
}

// FetchWatched retrieves the identifiers of every film a user has marked as
// seen, across all pages of their films listing.
func (c *Client) FetchWatched(ctx context.Context, username string) ([]string, error) {
	log.Printf("[letterboxd] fetching watched films for %s", username)

	var watched []string
	page := 1

	for {
		url := fmt.Sprintf("%s/%s/films/page/%d/", c.baseURL, username, page)

		doc, err := c.getPage(ctx, c.listClient, url)
		if err != nil {
			if errors.Is(err, errPageNotFound) {
				if page == 1 {
					return nil, fmt.Errorf("%s: %w", username, ErrUserNotFound)
				}
				break
			}
			return nil, fmt.Errorf("fetch watched films for %s: %w", username, err)
		}

		found := 0
		doc.Find(filmEntrySelector).Each(func(_ int, sel *goquery.Selection) {
			id, _ := sel.Attr("data-film-id")
			if id == "" {
				return
			}
			watched = append(watched, models.NormalizeFilmID(id))
			found++
		})

		if found == 0 {
			break
		}
		page++
	}

	log.Printf("[letterboxd] watched for %s: %d films across %d pages", username, len(watched), page-1)
	return watched, nil
}

// FetchPoster resolves the primary preview image URL for a film's detail
// page. An empty return with nil error means the page had no image.
func (c *Client) FetchPoster(ctx context.Context, slug string) (string, error) {
	url := fmt.Sprintf("%s/film/%s/", c.baseURL, slug)

	doc, err := c.getPage(ctx, c.profileClient, url)
	if err != nil {
		return "", fmt.Errorf("fetch poster for %s: %w", slug, err)
	}

	ogImage, _ := doc.Find(`meta[property="og:image"]`).Attr("content")
	return ogImage, nil
}

// FetchFilmDetails extracts rating, year and director from a film's detail
// page. Fields the page lacks stay empty.
func (c *Client) FetchFilmDetails(ctx context.Context, slug string) (models.FilmDetails, error) {
	url := fmt.Sprintf("%s/film/%s/", c.baseURL, slug)

	doc, err := c.getPage(ctx, c.profileClient, url)
	if err != nil {
		return models.FilmDetails{}, fmt.Errorf("fetch film details for %s: %w", slug, err)
	}

	return models.FilmDetails{
		Rating:   strings.TrimSpace(doc.Find(".average-rating .average").First().Text()),
		Year:     strings.TrimSpace(doc.Find(".film-header .number").First().Text()),
		Director: strings.TrimSpace(doc.Find(".directedby a").First().Text()),
	}, nil
}

// getPage fetches one page through the rate-limit gate and parses it.
// Transient failures (network errors, 5xx) are retried once; each attempt
// re-acquires the gate so retries keep the request spacing.
func (c *Client) getPage(ctx context.Context, httpClient *http.Client, url string) (*goquery.Document, error) {
	var doc *goquery.Document

	err := retry.Do(
		func() error {
			if err := c.gate.Acquire(ctx); err != nil {
				return retry.Unrecoverable(err)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
			}
			req.Header.Set("User-Agent", c.userAgent)

			resp, err := httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrTransport, err)
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusNotFound:
				return retry.Unrecoverable(errPageNotFound)
			case resp.StatusCode >= 500:
				return fmt.Errorf("%w: unexpected status %s", ErrTransport, resp.Status)
			case resp.StatusCode != http.StatusOK:
				return retry.Unrecoverable(fmt.Errorf("%w: unexpected status %s", ErrTransport, resp.Status))
			}

			parsed, err := goquery.NewDocumentFromReader(resp.Body)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("%w: %v", ErrParse, err))
			}

			doc = parsed
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(fetchAttempts),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	return doc, nil
}
