// Package marketplace looks up competing listings and seller reputation on
// the public marketplace site.
package marketplace

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"math/rand"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/mercascan/mercascan/internal/cache"
	"github.com/mercascan/mercascan/internal/config"
	"github.com/mercascan/mercascan/internal/domain"
)

// Rotated on every attempt; the site throttles repeated identical agents.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.131 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.2 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:90.0) Gecko/20100101 Firefox/90.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.107 Safari/537.36",
}

var (
	leadingCodePart = regexp.MustCompile(`^([A-Z0-9]{2,15}[-/]?[A-Z0-9]{0,10})\s+`)
	unsafeQueryChar = regexp.MustCompile(`[^\p{L}\p{N}\s\-.,]`)
)

// Client performs marketplace lookups with retry, user-agent rotation and an
// optional read-through cache. Lookup failures degrade to empty results;
// nothing here aborts an analysis run.
type Client struct {
	cfg        config.MarketplaceConfig
	httpClient *http.Client
	cache      cache.Client
	cacheTTL   time.Duration
	log        zerolog.Logger
	rng        *rand.Rand
}

// NewClient creates a marketplace client. Pass cache.Nop{} to disable
// caching.
func NewClient(cfg config.MarketplaceConfig, cacheClient cache.Client, cacheTTL time.Duration, log zerolog.Logger) *Client {
	if cacheClient == nil {
		cacheClient = cache.Nop{}
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cacheClient,
		cacheTTL:   cacheTTL,
		log:        log,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// PrepareQuery cleans a product name for search: long leading product codes
// are dropped, the query is capped at 80 characters on a word boundary,
// unsafe characters become spaces and words of up to two characters are
// removed. Remaining spaces become %20 for use in the search URL.
func (c *Client) PrepareQuery(productName string) string {
	query := strings.TrimSpace(productName)

	if m := leadingCodePart.FindStringSubmatch(query); m != nil && len(m[1]) > 4 {
		query = strings.TrimSpace(query[len(m[1]):])
	}

	if len(query) > 80 {
		var kept []string
		length := 0
		for _, word := range strings.Fields(query) {
			if length+len(word)+1 > 80 {
				break
			}
			kept = append(kept, word)
			length += len(word) + 1
		}
		query = strings.Join(kept, " ")
	}

	query = unsafeQueryChar.ReplaceAllString(query, " ")

	var words []string
	for _, word := range strings.Fields(query) {
		if len(word) > 2 {
			words = append(words, word)
		}
	}
	return strings.Join(words, "%20")
}

// Search returns up to MaxListings competing listings for a product name.
// Too-short names and exhausted retries both yield an empty list.
func (c *Client) Search(ctx context.Context, productName string) []domain.MarketListing {
	if len(strings.TrimSpace(productName)) < c.cfg.MinQueryLength {
		return nil
	}

	query := c.PrepareQuery(productName)
	if query == "" {
		return nil
	}

	cacheKey := "search:" + query
	if cached, err := c.cache.Get(ctx, cacheKey); err == nil {
		var listings []domain.MarketListing
		if json.Unmarshal(cached, &listings) == nil {
			c.log.Debug().Str("query", query).Msg("search served from cache")
			return listings
		}
	}

	searchURL := strings.TrimRight(c.cfg.BaseURL, "/") + "/jm/search?as_word=" + query
	parsers := []searchParser{parseSearchStandard, parseSearchAlternative, parseSearchMinimal}

	var listings []domain.MarketListing
	for attempt := 0; attempt < c.cfg.MaxRetries && listings == nil; attempt++ {
		if !c.waitBackoff(ctx, attempt) {
			return nil
		}

		doc, _, ok := c.fetch(ctx, searchURL)
		if !ok {
			continue
		}

		for i, parse := range parsers {
			if found := parse(doc, c.cfg.MaxListings); len(found) > 0 {
				c.log.Info().
					Str("product", productName).
					Int("results", len(found)).
					Int("parser", i+1).
					Msg("marketplace search succeeded")
				listings = found
				break
			}
		}
		if listings == nil {
			c.log.Warn().Str("product", productName).Int("attempt", attempt+1).Msg("no listings parsed")
		}
	}

	if listings != nil {
		if payload, err := json.Marshal(listings); err == nil {
			_ = c.cache.Set(ctx, cacheKey, payload, c.cacheTTL)
		}
	}
	return listings
}

// Detail fetches the seller signal behind one listing link. All failures
// degrade to the unknown-seller default.
func (c *Client) Detail(ctx context.Context, link string) domain.SellerSignal {
	if strings.TrimSpace(link) == "" {
		return emptySignal()
	}

	cacheKey := "detail:" + link
	if cached, err := c.cache.Get(ctx, cacheKey); err == nil {
		var signal domain.SellerSignal
		if json.Unmarshal(cached, &signal) == nil {
			return signal
		}
	}

	parsers := []detailParser{parseDetailStandard, parseDetailAlternative, parseDetailMinimal}

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if !c.waitBackoff(ctx, attempt) {
			return emptySignal()
		}

		doc, raw, ok := c.fetch(ctx, link)
		if !ok {
			continue
		}

		for _, parse := range parsers {
			if signal := parse(doc, raw); informative(signal) {
				if payload, err := json.Marshal(signal); err == nil {
					_ = c.cache.Set(ctx, cacheKey, payload, c.cacheTTL)
				}
				return signal
			}
		}
	}

	return emptySignal()
}

// fetch performs one GET with a rotated user agent and parses the body.
// A non-200 status or transport error reports !ok so the caller retries.
func (c *Client) fetch(ctx context.Context, target string) (*html.Node, string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		c.log.Warn().Err(err).Str("url", target).Msg("bad request")
		return nil, "", false
	}
	req.Header.Set("User-Agent", userAgents[c.rng.Intn(len(userAgents))])
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("url", target).Msg("marketplace request failed")
		return nil, "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Str("url", target).Msg("marketplace non-200 response")
		return nil, "", false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to read marketplace response")
		return nil, "", false
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to parse marketplace HTML")
		return nil, "", false
	}
	return doc, string(body), true
}

// waitBackoff sleeps factor^attempt seconds before retries after the first
// attempt. Returns false when the context was canceled while waiting.
func (c *Client) waitBackoff(ctx context.Context, attempt int) bool {
	if attempt == 0 {
		return ctx.Err() == nil
	}
	wait := time.Duration(math.Pow(c.cfg.BackoffFactor, float64(attempt)) * float64(time.Second))
	c.log.Debug().Int("attempt", attempt+1).Dur("wait", wait).Msg("backing off before retry")
	select {
	case <-ctx.Done():
		return false
	case <-time.After(wait):
		return true
	}
}
