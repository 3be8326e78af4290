package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestFromSlice(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		req       Request
		wantFirst int
		wantLen   int
		wantPages int
	}{
		{name: "first page", total: 25, req: Request{Page: 0, Size: 10}, wantFirst: 0, wantLen: 10, wantPages: 3},
		{name: "second page", total: 25, req: Request{Page: 1, Size: 10}, wantFirst: 10, wantLen: 10, wantPages: 3},
		{name: "partial last page", total: 25, req: Request{Page: 2, Size: 10}, wantFirst: 20, wantLen: 5, wantPages: 3},
		{name: "past the end", total: 25, req: Request{Page: 9, Size: 10}, wantLen: 0, wantPages: 3},
		{name: "empty", total: 0, req: Request{Page: 0, Size: 10}, wantLen: 0, wantPages: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := FromSlice(seq(tt.total), tt.req)

			assert.Len(t, page.Content, tt.wantLen)
			assert.Equal(t, int64(tt.total), page.TotalElements)
			assert.Equal(t, tt.wantPages, page.TotalPages)
			assert.Equal(t, tt.req.Page, page.Page)
			assert.NotNil(t, page.Content)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, page.Content[0])
			}
		})
	}
}

func TestFromSlice_DoesNotAliasInput(t *testing.T) {
	all := seq(5)
	page := FromSlice(all, Request{Page: 0, Size: 2})
	page.Content[0] = 99
	assert.Equal(t, 0, all[0])
}

func TestFromQuery(t *testing.T) {
	page := FromQuery([]string{"a", "b"}, 12, Request{Page: 3, Size: 2})
	assert.Equal(t, int64(12), page.TotalElements)
	assert.Equal(t, 6, page.TotalPages)
	assert.Equal(t, []string{"a", "b"}, page.Content)

	empty := FromQuery[string](nil, 0, Request{Size: 5})
	assert.Equal(t, []string{}, empty.Content)
}

func TestRequest_Normalize(t *testing.T) {
	r := Request{Page: -2, Size: 0}.Normalize(20, 100)
	assert.Equal(t, 0, r.Page)
	assert.Equal(t, 20, r.Size)
	assert.Equal(t, Desc, r.Sort.Direction)

	r = Request{Page: 1, Size: 1000, Sort: Sort{Field: "name", Direction: Asc}}.Normalize(20, 100)
	assert.Equal(t, 100, r.Size)
	assert.Equal(t, 100, r.Offset())
	assert.Equal(t, Asc, r.Sort.Direction)
}

func TestParseDirection(t *testing.T) {
	assert.Equal(t, Asc, ParseDirection("ASC"))
	assert.Equal(t, Asc, ParseDirection(" asc "))
	assert.Equal(t, Desc, ParseDirection("desc"))
	assert.Equal(t, Desc, ParseDirection("sideways"))
}

func TestRequest_NormalizeCapsHugePage(t *testing.T) {
	r := Request{Page: math.MaxInt64 / 2, Size: 2}.Normalize(20, 100)
	assert.Equal(t, math.MaxInt/2, r.Page)
	assert.GreaterOrEqual(t, r.Offset(), 0)

	r = Request{Page: math.MaxInt, Size: 50}.Normalize(20, 100)
	assert.GreaterOrEqual(t, r.Offset(), 0)
}

func TestRequest_OffsetSaturates(t *testing.T) {
	assert.Equal(t, math.MaxInt, Request{Page: math.MaxInt / 2, Size: 3}.Offset())
}

func TestFromSlice_HugePageIsEmpty(t *testing.T) {
	req := Request{Page: 4611686018427387904, Size: 2}

	assert.NotPanics(t, func() {
		page := FromSlice(seq(5), req)
		assert.Empty(t, page.Content)
		assert.Equal(t, int64(5), page.TotalElements)
	})
}
