package report

import (
	"fmt"
	"strings"

	"github.com/donaldgifford/market-suggest/pkg/price"
	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

// FieldSeparator joins the fields of one listing line.
const FieldSeparator = " | "

// ListingLine renders a listing as "name | price | condition | posted | url".
func ListingLine(l domain.Listing) string {
	p := "-"
	if l.HasPrice() {
		p = price.Format(*l.Price)
	}
	return strings.Join([]string{l.Name, p, conditionCell(&l), l.PostedDate, l.URL}, FieldSeparator)
}

// TierTitle is the heading of a tier message.
func TierTitle(t domain.Tier) string {
	return fmt.Sprintf("%s (%g%% off median, %d listings)", t.Label, t.Rate*100, len(t.Listings))
}

// TierText renders a tier as its title followed by one line per listing.
func TierText(t domain.Tier) string {
	var b strings.Builder
	b.WriteString(TierTitle(t))
	for _, l := range t.Listings {
		b.WriteByte('\n')
		b.WriteString(ListingLine(l))
	}
	return b.String()
}
