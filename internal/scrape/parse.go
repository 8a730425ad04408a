package scrape

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// ErrNoPrice is returned by Parse when the price element is missing.
var ErrNoPrice = errors.New("price element not found")

// NoPostedDate is recorded when no posted-date element matches.
const NoPostedDate = "日付情報なし"

// relativeMarker identifies relative posted-date text such as "3日前".
const relativeMarker = "前"

// Selectors holds the CSS selectors of the item page fields.
type Selectors struct {
	Name       string
	Price      string
	Condition  string
	PostedDate string
}

// Parse extracts a listing row from an item page. The name falls back to
// the first h1; the condition is left empty when absent so it normalizes to
// the error grade. Among posted-date matches the first relative date wins.
func Parse(body []byte, sel Selectors) (domain.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.RawListing{}, fmt.Errorf("parsing document: %w", err)
	}

	var row domain.RawListing

	row.Name = firstText(doc, sel.Name)
	if row.Name == "" {
		row.Name = firstText(doc, "h1")
	}

	row.Price = priceText(doc, sel.Price)
	if row.Price == "" {
		return row, ErrNoPrice
	}

	row.Condition = firstText(doc, sel.Condition)
	row.PostedDate = postedDate(doc, sel.PostedDate)

	return row, nil
}

func firstText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	return clean(doc.Find(selector).First().Text())
}

// priceText prefers the last span inside the price element, where the
// marketplace puts the figure after the currency mark.
func priceText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	el := doc.Find(selector).First()
	if el.Length() == 0 {
		return ""
	}
	if spans := el.Find("span"); spans.Length() > 1 {
		if t := clean(spans.Last().Text()); t != "" {
			return t
		}
	}
	return clean(el.Text())
}

func postedDate(doc *goquery.Document, selector string) string {
	if selector == "" {
		return NoPostedDate
	}
	var first, relative string
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := clean(s.Text())
		if t == "" {
			return true
		}
		if first == "" {
			first = t
		}
		if strings.Contains(t, relativeMarker) {
			relative = t
			return false
		}
		return true
	})
	switch {
	case relative != "":
		return relative
	case first != "":
		return first
	default:
		return NoPostedDate
	}
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
