package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/market-suggest/pkg/types"
)

func TestRead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    []domain.RawListing
		wantErr error
	}{
		{
			name: "canonical header",
			input: "index,name,price,condition,posted_date,url\n" +
				"3,Camera,\"24,800\",新品、未使用,2026-10-01,https://example.com/m1\n",
			want: []domain.RawListing{{
				Index: 3, Name: "Camera", Price: "24,800", Condition: "新品、未使用",
				PostedDate: "2026-10-01", URL: "https://example.com/m1",
			}},
		},
		{
			name: "pandas index column and outlier flag ignored",
			input: ",name,price,condition,outlier_flag\n" +
				"0,Lens,1000,like_new,True\n" +
				"1,Body,abc,unknown,False\n",
			want: []domain.RawListing{
				{Index: 0, Name: "Lens", Price: "1000", Condition: "like_new"},
				{Index: 1, Name: "Body", Price: "abc", Condition: "unknown"},
			},
		},
		{
			name: "aliases without index",
			input: "商品名,価格,商品の状態,商品URL\n" +
				"A,100,poor,https://example.com/a\n" +
				"\n" +
				"B,200,damaged,https://example.com/b\n",
			want: []domain.RawListing{
				{Index: 0, Name: "A", Price: "100", Condition: "poor", URL: "https://example.com/a"},
				{Index: 1, Name: "B", Price: "200", Condition: "damaged", URL: "https://example.com/b"},
			},
		},
		{
			name:  "short rows",
			input: "name,price,condition,url\nA,100\n",
			want:  []domain.RawListing{{Name: "A", Price: "100"}},
		},
		{
			name:  "empty input",
			input: "",
			want:  []domain.RawListing{},
		},
		{
			name:    "missing price column",
			input:   "name,condition\nA,new\n",
			wantErr: ErrMissingColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Read(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteRaw_RoundTripsThroughRead(t *testing.T) {
	t.Parallel()

	rows := []domain.RawListing{
		{Index: 0, Name: "Camera, black", Price: "24,800", Condition: "新品、未使用", URL: "https://example.com/1"},
		{Index: 1, Name: "Lens \"50mm\"", Price: "", Condition: "", PostedDate: "3日前"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRaw(&buf, rows))
	assert.True(t, strings.HasPrefix(buf.String(), "index,name,price,condition,posted_date,url\n"))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "listings.csv")
	require.NoError(t, os.WriteFile(path, []byte("price,condition\n100,new\n"), 0o600))

	got, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = ReadFile(filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening")
}

func TestReadURLs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "csv with url header",
			input: "id,商品URL\n1,https://example.com/a\n2,https://example.com/b\n3,https://example.com/a\n",
			want:  []string{"https://example.com/a", "https://example.com/b"},
		},
		{
			name:  "plain lines",
			input: "https://example.com/a\n\nhttps://example.com/c\n",
			want:  []string{"https://example.com/a", "https://example.com/c"},
		},
		{
			name:  "empty",
			input: "",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ReadURLs(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
