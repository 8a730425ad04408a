package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSelectors = Selectors{
	Name:       `[data-testid="name"]`,
	Price:      `[data-testid="price"]`,
	Condition:  `[data-testid="商品の状態"]`,
	PostedDate: `p.posted`,
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		html    string
		want    map[string]string
		wantErr error
	}{
		{
			name: "full item page",
			html: `<html><body>
				<h1 data-testid="name">  Mirrorless
				Camera </h1>
				<div data-testid="price"><span>¥</span><span>24,000</span></div>
				<span data-testid="商品の状態">目立った傷や汚れなし</span>
				<p class="posted">配送料の負担</p>
				<p class="posted">3日前</p>
			</body></html>`,
			want: map[string]string{
				"name":      "Mirrorless Camera",
				"price":     "24,000",
				"condition": "目立った傷や汚れなし",
				"posted":    "3日前",
			},
		},
		{
			name: "name falls back to h1 and price to element text",
			html: `<html><body>
				<h1>Lens</h1>
				<div data-testid="price">¥18,500</div>
			</body></html>`,
			want: map[string]string{
				"name":      "Lens",
				"price":     "¥18,500",
				"condition": "",
				"posted":    NoPostedDate,
			},
		},
		{
			name: "posted date without relative marker uses first match",
			html: `<html><body>
				<h1>Body</h1>
				<div data-testid="price"><span>30000</span></div>
				<p class="posted">2026/10/01</p>
			</body></html>`,
			want: map[string]string{
				"name":      "Body",
				"price":     "30000",
				"condition": "",
				"posted":    "2026/10/01",
			},
		},
		{
			name:    "missing price",
			html:    `<html><body><h1>Sold out</h1></body></html>`,
			wantErr: ErrNoPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			row, err := Parse([]byte(tt.html), testSelectors)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want["name"], row.Name)
			assert.Equal(t, tt.want["price"], row.Price)
			assert.Equal(t, tt.want["condition"], row.Condition)
			assert.Equal(t, tt.want["posted"], row.PostedDate)
		})
	}
}
