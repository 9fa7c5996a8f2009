package repository

import (
	"testing"

	"kintone-catalog/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestBuildSearchQuery(t *testing.T) {
	fields := model.DefaultFieldMapping()

	tests := []struct {
		name     string
		req      model.SearchRequest
		expected string
	}{
		{
			name:     "Empty keyword has no filter",
			req:      model.SearchRequest{Keyword: "", Limit: 50, Offset: 0, Order: "更新日時 desc"},
			expected: `order by 更新日時 desc limit 50 offset 0`,
		},
		{
			name:     "Text keyword matches code and name",
			req:      model.SearchRequest{Keyword: "ABC", Limit: 10, Offset: 20, Order: "更新日時 desc"},
			expected: `商品コード like "ABC" or 商品名 like "ABC" order by 更新日時 desc limit 10 offset 20`,
		},
		{
			name:     "Numeric keyword adds price equality",
			req:      model.SearchRequest{Keyword: "1200", Limit: 10, Offset: 0, Order: "更新日時 desc"},
			expected: `商品コード like "1200" or 商品名 like "1200" or 上代 = 1200 order by 更新日時 desc limit 10 offset 0`,
		},
		{
			name:     "Decimal keyword is canonicalised",
			req:      model.SearchRequest{Keyword: "12.50", Limit: 1, Offset: 0, Order: "更新日時 desc"},
			expected: `商品コード like "12.50" or 商品名 like "12.50" or 上代 = 12.5 order by 更新日時 desc limit 1 offset 0`,
		},
		{
			name:     "Quotes are escaped",
			req:      model.SearchRequest{Keyword: `a"b\c`, Limit: 5, Offset: 0},
			expected: `商品コード like "a\"b\\c" or 商品名 like "a\"b\\c" limit 5 offset 0`,
		},
		{
			name:     "Blank order is omitted",
			req:      model.SearchRequest{Keyword: "", Limit: 0, Offset: 0, Order: "  "},
			expected: `limit 0 offset 0`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildSearchQuery(fields, tt.req))
		})
	}
}

func TestBuildSearchQuery_CustomMapping(t *testing.T) {
	fields := model.DefaultFieldMapping()
	fields.Code = "code"
	fields.Name = "name"
	fields.Price = "price"

	got := buildSearchQuery(fields, model.SearchRequest{Keyword: "7", Limit: 10, Offset: 0})

	assert.Equal(t, `code like "7" or name like "7" or price = 7 limit 10 offset 0`, got)
}

func TestNumericLiteral(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{input: "100", expected: "100", ok: true},
		{input: "-3.25", expected: "-3.25", ok: true},
		{input: " 42 ", expected: "42", ok: true},
		{input: "1e3", expected: "1000", ok: true},
		{input: "0.000125", expected: "0.000125", ok: true},
		{input: "1e30", expected: "1000000000000000000000000000000", ok: true},
		{input: "1e400", ok: false},
		{input: "-1e400", ok: false},
		{input: "1e100000", ok: false},
		{input: "1e999999999", ok: false},
		{input: "1e-100000", ok: false},
		{input: "NaN", ok: false},
		{input: "Infinity", ok: false},
		{input: "1,200", ok: false},
		{input: "ABC-1", ok: false},
		{input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := numericLiteral(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestBuildSearchQuery_HugeExponentKeyword(t *testing.T) {
	fields := model.DefaultFieldMapping()

	for _, keyword := range []string{"1e999999999", "1e5000000", "9e-99999999"} {
		got := buildSearchQuery(fields, model.NewSearchRequest(keyword))

		assert.NotContains(t, got, fields.Price+" =", keyword)
		assert.Less(t, len(got), 200, keyword)
	}
}

func TestSortClause(t *testing.T) {
	fields := model.DefaultFieldMapping()

	tests := []struct {
		name     string
		order    string
		expected string
		err      error
	}{
		{name: "Blank", order: "  ", expected: ""},
		{name: "Default order", order: model.DefaultSearchOrder, expected: "更新日時 desc"},
		{name: "Direction is case insensitive", order: "$id ASC", expected: "$id asc"},
		{name: "Direction is optional", order: "商品コード", expected: "商品コード"},
		{name: "Several terms", order: "上代 desc,商品コード  asc", expected: "上代 desc, 商品コード asc"},
		{name: "Created time", order: "作成日時 asc", expected: "作成日時 asc"},
		{name: "Unknown field", order: "JAN asc", err: model.ErrInvalidOrder},
		{name: "Unknown direction", order: "$id sideways", err: model.ErrInvalidOrder},
		{name: "Extra clause", order: "$id asc limit 1", err: model.ErrInvalidOrder},
		{name: "Injected filter", order: `$id asc) or (商品名 like "x"`, err: model.ErrInvalidOrder},
		{name: "Empty term", order: "$id asc,", err: model.ErrInvalidOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sortClause(fields, tt.order)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBuildRecordQuery(t *testing.T) {
	assert.Equal(t, "$id = 42 limit 1", buildRecordQuery(42))
}
