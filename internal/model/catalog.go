package model

// Defaults applied to search requests.
const (
	DefaultSearchLimit  = 50
	DefaultSearchOffset = 0
	DefaultSearchOrder  = FieldUpdatedTime + " desc"
)

// Paging bounds of the kintone record API.
const (
	MaxSearchLimit  = 500
	MaxSearchOffset = 10000
)

// FieldMapping maps the logical product attributes to kintone field
// identifiers. It is built once at startup and passed by value.
type FieldMapping struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Symbol   string `json:"symbol"`
	InnerQty string `json:"innerQty"`
	Location string `json:"location"`
	Balance  string `json:"balance"`
}

// DefaultFieldMapping returns the field identifiers of the product app.
func DefaultFieldMapping() FieldMapping {
	return FieldMapping{
		Code:     "商品コード",
		Name:     "商品名",
		Price:    "上代",
		Symbol:   "記号",
		InnerQty: "内箱入数",
		Location: "ロケーション",
		Balance:  "差引実",
	}
}

// CardFields lists the fields requested for the search card view.
func (m FieldMapping) CardFields() []string {
	return []string{
		FieldRecordID,
		FieldRecordNumber,
		m.Code,
		m.Name,
		m.Price,
		m.Symbol,
		m.InnerQty,
		m.Location,
		m.Balance,
		FieldProductCD,
	}
}

// SortableFields lists the fields a search may be ordered by.
func (m FieldMapping) SortableFields() []string {
	return append(m.CardFields(), FieldUpdatedTime, FieldCreatedTime)
}

// SearchRequest represents a keyword search over the product app.
type SearchRequest struct {
	Keyword string
	Limit   int
	Offset  int
	Order   string
}

// NewSearchRequest returns a request carrying the default paging and order.
func NewSearchRequest(keyword string) SearchRequest {
	return SearchRequest{
		Keyword: keyword,
		Limit:   DefaultSearchLimit,
		Offset:  DefaultSearchOffset,
		Order:   DefaultSearchOrder,
	}
}

// RecordPage is one page of records returned by the record API.
type RecordPage struct {
	// TotalCount is passed through as upstream sent it; nil when absent.
	TotalCount any
	Records    []Record
}

// SearchResponse represents the response payload for a search.
type SearchResponse struct {
	OK         bool     `json:"ok"`
	TotalCount any      `json:"totalCount,omitempty"`
	Records    []Record `json:"records"`
	NextOffset int      `json:"nextOffset"`
}

// RecordResponse represents the response payload for a record lookup.
// Record is null when no record matched.
type RecordResponse struct {
	OK     bool     `json:"ok"`
	Record Record   `json:"record"`
	Images []string `json:"images,omitempty"`
}

// Image is a relayed image ready to be written to the client.
type Image struct {
	ContentType string
	Filename    string
	Data        []byte
}
