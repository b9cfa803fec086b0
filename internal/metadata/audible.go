// file: internal/metadata/audible.go
// version: 1.2.0
// guid: c8f2d0a1-3b4e-5c6d-7e8f-9a0b1c2d3e4f

package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jdfalk/audible-tagger/internal/cache"
	"github.com/jdfalk/audible-tagger/internal/metrics"
	"github.com/jdfalk/audible-tagger/internal/models"
)

// ErrNotFound is returned by GetBookDetails when the catalog has no product
// record for the requested ASIN.
var ErrNotFound = errors.New("book not found in catalog")

// searchLocales are the known regional catalog endpoints, in fallback order.
// The preferred locale from configuration is always tried first.
var searchLocales = []string{
	"com", "co.uk", "ca", "fr", "de", "it", "es", "co.jp", "com.au", "com.br",
}

const (
	responseGroups = "category_ladders,contributors,media,product_desc,product_attrs,product_extended_attrs,rating,series"
	maxResults     = 5

	searchCacheTTL = 15 * time.Minute
	detailCacheTTL = time.Hour
)

// AudibleClient queries the Audible catalog API across regional endpoints.
// Search tries the preferred locale first and stops at the first region that
// returns any hits; a region failure logs a warning and falls through.
type AudibleClient struct {
	httpClient      *http.Client
	baseURLTemplate string
	preferredLocale string
	authorOpts      AuthorOptions
	searchCache     *cache.Cache[[]models.SearchResult]
	detailCache     *cache.Cache[*models.BookDetail]
}

// NewAudibleClient creates a catalog client. preferredLocale is the region
// tried first for searches and used for detail lookups when the caller does
// not know a better one.
func NewAudibleClient(preferredLocale string, authorOpts AuthorOptions) *AudibleClient {
	return &AudibleClient{
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		baseURLTemplate: "https://api.audible.%s/1.0/catalog/products",
		preferredLocale: preferredLocale,
		authorOpts:      authorOpts,
		searchCache:     cache.New[[]models.SearchResult](searchCacheTTL),
		detailCache:     cache.New[*models.BookDetail](detailCacheTTL),
	}
}

// NewAudibleClientWithBaseURL creates a client whose every locale resolves to
// the same fixed base URL (for testing). The %s locale slot is ignored.
func NewAudibleClientWithBaseURL(baseURL string, preferredLocale string, authorOpts AuthorOptions) *AudibleClient {
	c := NewAudibleClient(preferredLocale, authorOpts)
	c.baseURLTemplate = strings.TrimRight(baseURL, "/") + "/1.0/catalog/products"
	return c
}

// Name returns the display name for this metadata source.
func (c *AudibleClient) Name() string {
	return "Audible"
}

// Audible catalog API response types
type audiblePerson struct {
	ASIN string `json:"asin"`
	Name string `json:"name"`
}

type audibleSeries struct {
	ASIN     string `json:"asin"`
	Title    string `json:"title"`
	Sequence string `json:"sequence"`
}

type audibleRating struct {
	OverallDistribution struct {
		DisplayAverageRating json.Number `json:"display_average_rating"`
	} `json:"overall_distribution"`
}

type audibleCategory struct {
	Name string `json:"name"`
}

type audibleLadder struct {
	Root   string            `json:"root"`
	Ladder []audibleCategory `json:"ladder"`
}

type audibleExtendedAttrs struct {
	Copyright string `json:"copyright"`
	ISBN      string `json:"isbn"`
}

type audibleProduct struct {
	ASIN                 string                `json:"asin"`
	Title                string                `json:"title"`
	Subtitle             string                `json:"subtitle"`
	Authors              []audiblePerson       `json:"authors"`
	Narrators            []audiblePerson       `json:"narrators"`
	Series               []audibleSeries       `json:"series"`
	PublisherSummary     string                `json:"publisher_summary"`
	MerchandisingSummary string                `json:"merchandising_summary"`
	RuntimeLengthMin     int                   `json:"runtime_length_min"`
	Rating               *audibleRating        `json:"rating"`
	PublicationDatetime  string                `json:"publication_datetime"`
	Language             string                `json:"language"`
	FormatType           string                `json:"format_type"`
	PublisherName        string                `json:"publisher_name"`
	IsAdultProduct       bool                  `json:"is_adult_product"`
	ProductImages        map[string]string     `json:"product_images"`
	CategoryLadders      []audibleLadder       `json:"category_ladders"`
	ExtendedAttrs        *audibleExtendedAttrs `json:"product_extended_attrs"`
}

type audibleSearchResponse struct {
	Products []audibleProduct `json:"products"`
}

type audibleDetailResponse struct {
	Product *audibleProduct `json:"product"`
}

func (c *AudibleClient) productsURL(locale string) string {
	if strings.Contains(c.baseURLTemplate, "%s") {
		return fmt.Sprintf(c.baseURLTemplate, locale)
	}
	return c.baseURLTemplate
}

// browser-mimicking request headers; the catalog endpoint rejects bare clients
func (c *AudibleClient) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
}

// Search queries the catalog across regional endpoints and returns at most
// five results deduplicated by ASIN. The first region returning any hits
// wins; if every region fails or comes back empty the result is an empty
// slice, not an error. Results are cached briefly so an interactive retry of
// the same query does not hit the API again.
func (c *AudibleClient) Search(query string) []models.SearchResult {
	if cached, ok := c.searchCache.Get(query); ok {
		return cached
	}

	locales := make([]string, 0, len(searchLocales)+1)
	locales = append(locales, c.preferredLocale)
	for _, l := range searchLocales {
		if l != c.preferredLocale {
			locales = append(locales, l)
		}
	}

	var results []models.SearchResult
	for _, locale := range locales {
		hits, err := c.searchLocale(locale, query)
		if err != nil {
			log.Printf("[WARN] Audible search failed for locale %s: %v", locale, err)
			continue
		}
		for _, hit := range hits {
			if containsASIN(results, hit.ASIN) {
				continue
			}
			results = append(results, hit)
		}
		if len(results) > 0 {
			break
		}
	}

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	if len(results) > 0 {
		c.searchCache.Set(query, results)
	}
	return results
}

func (c *AudibleClient) searchLocale(locale, query string) ([]models.SearchResult, error) {
	metrics.SearchesByLocale.WithLabelValues(locale).Inc()

	params := url.Values{}
	params.Set("keywords", query)
	params.Set("response_groups", responseGroups)
	params.Set("image_sizes", "500,1000")
	params.Set("num_results", "5")

	req, err := http.NewRequest(http.MethodGet, c.productsURL(locale)+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog search returned status %d", resp.StatusCode)
	}

	var decoded audibleSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]models.SearchResult, 0, len(decoded.Products))
	for _, p := range decoded.Products {
		title := p.Title
		if title == "" {
			title = "Unknown Title"
		}

		narrators := personNames(p.Narrators)

		seriesInfo := ""
		if len(p.Series) > 0 {
			seriesInfo = p.Series[0].Title
			if p.Series[0].Sequence != "" {
				seriesInfo += " #" + p.Series[0].Sequence
			}
		}

		hits = append(hits, models.SearchResult{
			Title:    title,
			Author:   ResolveAuthors(personNames(p.Authors), c.authorOpts),
			Narrator: strings.Join(narrators, ", "),
			Series:   seriesInfo,
			ASIN:     p.ASIN,
			Locale:   locale,
		})
	}
	return hits, nil
}

// GetBookDetails fetches the full product record for an ASIN from the given
// locale and maps it into a BookDetail. Missing optional fields default to
// empty values; only a missing product root is an error (ErrNotFound).
func (c *AudibleClient) GetBookDetails(asin, locale string) (*models.BookDetail, error) {
	if locale == "" {
		locale = c.preferredLocale
	}
	cacheKey := locale + "|" + asin
	if cached, ok := c.detailCache.Get(cacheKey); ok {
		return cached, nil
	}

	params := url.Values{}
	params.Set("response_groups", responseGroups)
	params.Set("image_sizes", "500,1000")

	reqURL := c.productsURL(locale) + "/" + url.PathEscape(asin) + "?" + params.Encode()
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch book details: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog detail lookup returned status %d", resp.StatusCode)
	}

	var decoded audibleDetailResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode detail response: %w", err)
	}
	if decoded.Product == nil {
		return nil, ErrNotFound
	}

	detail := c.productToDetail(asin, decoded.Product)
	c.detailCache.Set(cacheKey, detail)
	return detail, nil
}

func (c *AudibleClient) productToDetail(asin string, p *audibleProduct) *models.BookDetail {
	detail := &models.BookDetail{
		ASIN:           asin,
		Title:          p.Title,
		Subtitle:       p.Subtitle,
		Language:       p.Language,
		FormatType:     p.FormatType,
		PublisherName:  p.PublisherName,
		IsAdultProduct: p.IsAdultProduct,
	}
	if detail.Title == "" {
		detail.Title = "Unknown Title"
	}

	detail.Authors = personNames(p.Authors)
	detail.Author = ResolveAuthors(detail.Authors, c.authorOpts)

	detail.Narrators = personNames(p.Narrators)
	detail.Narrator = strings.Join(detail.Narrators, ", ")

	if len(p.Series) > 0 {
		detail.Series = p.Series[0].Title
		detail.SeriesPart = p.Series[0].Sequence
	}

	// Prefer publisher_summary; fall back through the alternate summary fields.
	switch {
	case p.PublisherSummary != "":
		detail.Description = CleanHTMLText(p.PublisherSummary)
	case p.MerchandisingSummary != "":
		detail.Description = CleanHTMLText(p.MerchandisingSummary)
	}

	if p.RuntimeLengthMin > 0 {
		detail.RuntimeMinutes = fmt.Sprintf("%d", p.RuntimeLengthMin)
	}

	if p.Rating != nil {
		detail.Rating = p.Rating.OverallDistribution.DisplayAverageRating.String()
	}

	if p.PublicationDatetime != "" {
		detail.ReleaseDate = p.PublicationDatetime
		if len(p.PublicationDatetime) >= 10 {
			detail.ReleaseTimeShort = p.PublicationDatetime[:10]
		}
	}

	if len(p.ProductImages) > 0 {
		if img, ok := p.ProductImages["1000"]; ok && img != "" {
			detail.CoverURL = img
		} else if img, ok := p.ProductImages["500"]; ok {
			detail.CoverURL = img
		}
	}

	for _, ladder := range p.CategoryLadders {
		if ladder.Root != "Genres" {
			continue
		}
		for _, cat := range ladder.Ladder {
			if cat.Name != "" {
				detail.Genres = append(detail.Genres, cat.Name)
			}
		}
	}

	if p.ExtendedAttrs != nil {
		detail.Copyright = p.ExtendedAttrs.Copyright
		detail.ISBN = p.ExtendedAttrs.ISBN
	}

	return detail
}

func personNames(people []audiblePerson) []string {
	names := make([]string, 0, len(people))
	for _, p := range people {
		name := strings.TrimSpace(p.Name)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func containsASIN(results []models.SearchResult, asin string) bool {
	for _, r := range results {
		if r.ASIN == asin {
			return true
		}
	}
	return false
}
