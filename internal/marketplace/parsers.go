package marketplace

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"

	"github.com/mercascan/mercascan/internal/domain"
)

// The marketplace front end changes its markup without notice, so both
// lookups run a chain of parsers from the most specific selectors down to a
// raw link scan. The first parser that yields anything wins.

const untitled = "Sem título"

var (
	firstNumber  = regexp.MustCompile(`\d+`)
	currencyAmt  = regexp.MustCompile(`R\$\s*([\d.,]+)`)
	ratingNumber = regexp.MustCompile(`(\d[.,]\d+)`)
)

// parseAmount normalizes a Brazilian-locale amount string.
func parseAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func firstInt(s string) int {
	m := firstNumber.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

type searchParser func(doc *html.Node, limit int) []domain.MarketListing

// parseSearchStandard reads the regular search layout.
func parseSearchStandard(doc *html.Node, limit int) []domain.MarketListing {
	items := findAll(doc, "li", "ui-search-layout__item")
	var results []domain.MarketListing
	for _, item := range items {
		if len(results) >= limit {
			break
		}
		listing := domain.MarketListing{Title: untitled}
		if title := findFirst(item, "h2", "ui-search-item__title"); title != nil {
			listing.Title = textContent(title)
		}
		if price := findFirst(item, "span", "price-tag-fraction"); price != nil {
			listing.Price = parseAmount(textContent(price))
		}
		if link := findFirst(item, "a", "ui-search-link"); link != nil {
			listing.Link, _ = attr(link, "href")
		}
		if sold := findFirst(item, "span", "ui-search-item__sales"); sold != nil {
			listing.SoldCount = firstInt(textContent(sold))
		}
		results = append(results, listing)
	}
	return results
}

// parseSearchAlternative tries the selector variants seen on redesigned
// result pages.
func parseSearchAlternative(doc *html.Node, limit int) []domain.MarketListing {
	itemSelectors := []struct{ tag, class string }{
		{"div", "ui-search-result"},
		{"div", "andes-card"},
		{"div", "ui-search-result__wrapper"},
		{"li", "ui-search-layout__item"},
	}
	var items []*html.Node
	for _, sel := range itemSelectors {
		items = findAll(doc, sel.tag, sel.class)
		if len(items) > 0 {
			break
		}
	}

	var results []domain.MarketListing
	for _, item := range items {
		if len(results) >= limit {
			break
		}
		listing := domain.MarketListing{Title: untitled}

		for _, sel := range []struct{ tag, class string }{
			{"h2", ""}, {"", "ui-search-item__title"}, {"", "ui-search-item__group__element"},
		} {
			if el := findFirst(item, sel.tag, sel.class); el != nil && textContent(el) != "" {
				listing.Title = textContent(el)
				break
			}
		}

		for _, class := range []string{"price-tag-fraction", "andes-money-amount__fraction", "ui-search-price__part"} {
			if el := findFirst(item, "", class); el != nil {
				if p := parseAmount(textContent(el)); p.IsPositive() {
					listing.Price = p
					break
				}
			}
		}

		for _, sel := range []struct{ tag, class string }{
			{"a", "ui-search-link"}, {"a", "ui-search-result__content"}, {"a", ""},
		} {
			if el := findFirst(item, sel.tag, sel.class); el != nil {
				if href, ok := attr(el, "href"); ok {
					listing.Link = href
					break
				}
			}
		}

		for _, class := range []string{"ui-search-item__sales", "ui-search-item__group__element--shipping", "ui-search-item__highlights-label"} {
			if el := findFirst(item, "", class); el != nil {
				text := textContent(el)
				if strings.Contains(strings.ToLower(text), "vendido") {
					if n := firstInt(text); n > 0 {
						listing.SoldCount = n
						break
					}
				}
			}
		}

		results = append(results, listing)
	}
	return results
}

// parseSearchMinimal scans for product-shaped links and scavenges a title
// and price from nearby markup. Sold counts are not recoverable here.
func parseSearchMinimal(doc *html.Node, limit int) []domain.MarketListing {
	var results []domain.MarketListing
	for _, link := range findAll(doc, "a", "") {
		if len(results) >= limit {
			break
		}
		href, ok := attr(link, "href")
		if !ok || !strings.Contains(href, "mercadolivre.com.br") {
			continue
		}
		if !strings.Contains(href, "/p/") && !strings.Contains(href, "/produto/") && !strings.Contains(href, "MLB-") {
			continue
		}

		listing := domain.MarketListing{Title: untitled, Link: href}

		candidates := []string{textContent(link)}
		parent := link.Parent
		for i := 0; i < 3 && parent != nil; i++ {
			for _, tag := range []string{"h2", "h3", "span", "div"} {
				for _, el := range findAll(parent, tag, "") {
					if t := textContent(el); len(t) > 5 {
						candidates = append(candidates, t)
					}
				}
			}
			parent = parent.Parent
		}
		best := ""
		for _, c := range candidates {
			if len(strings.TrimSpace(c)) >= 5 && len(c) > len(best) {
				best = c
			}
		}
		if best != "" {
			listing.Title = best
		}

		parent = link.Parent
		for i := 0; i < 3 && parent != nil; i++ {
			if m := currencyAmt.FindStringSubmatch(textContent(parent)); m != nil {
				if p := parseAmount(m[1]); p.IsPositive() {
					listing.Price = p
					break
				}
			}
			parent = parent.Parent
		}

		results = append(results, listing)
	}
	return results
}

type detailParser func(doc *html.Node, raw string) domain.SellerSignal

func emptySignal() domain.SellerSignal {
	return domain.SellerSignal{SellerLevel: domain.UnknownSellerLevel}
}

// informative reports whether a parsed signal carries anything beyond the
// defaults.
func informative(s domain.SellerSignal) bool {
	return s.SellerLevel != domain.UnknownSellerLevel || s.Sales > 0 || s.Rating > 0
}

// parseDetailStandard reads the regular seller-info block.
func parseDetailStandard(doc *html.Node, _ string) domain.SellerSignal {
	signal := emptySignal()
	if el := findFirst(doc, "span", "ui-seller-info__status-info"); el != nil {
		if t := textContent(el); t != "" {
			signal.SellerLevel = t
		}
	}
	if el := findFirst(doc, "strong", "ui-seller-info__sales-number"); el != nil {
		signal.Sales = firstInt(textContent(el))
	}
	if el := findFirst(doc, "span", "ui-seller-info__rating-average"); el != nil {
		if r, err := strconv.ParseFloat(strings.ReplaceAll(textContent(el), ",", "."), 64); err == nil {
			signal.Rating = r
		}
	}
	return signal
}

// parseDetailAlternative tries the product-page seller selectors, then
// counts filled reputation stars as a last-resort rating.
func parseDetailAlternative(doc *html.Node, _ string) domain.SellerSignal {
	signal := emptySignal()

	for _, class := range []string{"seller-info__status-info", "seller-info__status", "ui-pdp-seller__label-title", "ui-pdp-action-modal__link"} {
		el := findFirst(doc, "", class)
		if el == nil {
			continue
		}
		t := textContent(el)
		if t == "" {
			continue
		}
		signal.SellerLevel = t
		if containsAnyFold(t, "líder", "platinum", "gold", "excelente", "bom") {
			break
		}
	}

	for _, class := range []string{"ui-seller-info__sales-number", "seller-info__sales-number", "ui-pdp-seller__sales-description"} {
		if el := findFirst(doc, "", class); el != nil {
			if n := firstInt(textContent(el)); n > 0 {
				signal.Sales = n
				break
			}
		}
	}

	for _, class := range []string{"ui-seller-info__rating-average", "seller-info__rating-average", "ui-pdp-seller__reputation-score"} {
		if el := findFirst(doc, "", class); el != nil {
			if r, err := strconv.ParseFloat(strings.ReplaceAll(textContent(el), ",", "."), 64); err == nil && r > 0 {
				signal.Rating = r
				break
			}
		}
	}
	if signal.Rating == 0 {
		if stars := findFirst(doc, "", "ui-pdp-seller__reputation-stars"); stars != nil {
			signal.Rating = float64(len(findAll(stars, "", "ui-pdp-icon--star-filled")))
		}
	}

	return signal
}

var (
	minimalLevelPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)MercadoL[íi]der\s*(Platinum|Gold)?`),
		regexp.MustCompile(`(?i)Vendedor\s*(Platinum|Gold)?`),
	}
	minimalSalesPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+)\s*vendas`),
		regexp.MustCompile(`(?i)(\d+)\s*vendido`),
		regexp.MustCompile(`(?i)vendeu\s*(\d+)`),
	}
	minimalRatingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d[.,]\d+)\s*estrelas`),
		regexp.MustCompile(`(?i)(\d[.,]\d+)\s*/\s*5`),
	}
)

// parseDetailMinimal runs plain regexes over the raw page, ignoring markup.
func parseDetailMinimal(_ *html.Node, raw string) domain.SellerSignal {
	signal := emptySignal()

	for _, p := range minimalLevelPatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			level := m[1]
			if level == "" {
				level = "Regular"
			}
			signal.SellerLevel = "MercadoLíder " + level
			break
		}
	}

	for _, p := range minimalSalesPatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				signal.Sales = n
				break
			}
		}
	}

	for _, p := range minimalRatingPatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			if r, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64); err == nil {
				signal.Rating = r
				break
			}
		}
	}

	return signal
}

func containsAnyFold(s string, subs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
