package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Layout describes how the frontend renders the record detail view and which
// fields hold image references.
type Layout struct {
	// DetailFields are shown in this order in the detail dialog.
	DetailFields []string `yaml:"detail_fields" json:"detailFields"`
	// Labels optionally replace a field code with a display label.
	Labels         map[string]string `yaml:"labels" json:"labels"`
	ImageFields    []string          `yaml:"image_fields" json:"imageFields"`
	CurrencyFields []string          `yaml:"currency_fields" json:"currencyFields"`
	NumberFields   []string          `yaml:"number_fields" json:"numberFields"`
}

// DefaultLayout returns the detail layout of the product app.
func DefaultLayout() Layout {
	return Layout{
		DetailFields: []string{
			"商品CD", "商品名", "上代", "特別上代", "記号", "裸差引", "詰差引", "定番差引", "差引実",
			"頁CD", "行CD", "ロケーション", "荷姿", "CT入数", "内箱入数", "JAN", "主倉庫CD",
			"仕入先名", "原産地", "磁器陶器", "材質_Bshop", "材質備考_Bshop", "容量_Bshop",
			"商品重量_Bshop", "発注残", "受注残合計",
		},
		Labels:         map[string]string{},
		ImageFields:    []string{"DropBox"},
		CurrencyFields: []string{"上代", "特別上代"},
		// JAN is deliberately absent: leading zeros must survive.
		NumberFields: []string{
			"裸差引", "詰差引", "定番差引", "差引実", "CT入数", "内箱入数",
			"商品重量_Bshop", "発注残", "受注残合計",
		},
	}
}

// DetailRequestFields returns the detail fields followed by the image fields,
// without duplicates.
func (l Layout) DetailRequestFields() []string {
	seen := make(map[string]bool, len(l.DetailFields)+len(l.ImageFields))
	fields := make([]string, 0, len(l.DetailFields)+len(l.ImageFields))
	for _, group := range [][]string{l.DetailFields, l.ImageFields} {
		for _, f := range group {
			if f == "" || seen[f] {
				continue
			}
			seen[f] = true
			fields = append(fields, f)
		}
	}
	return fields
}

// LoadLayout reads a YAML layout file. Keys missing from the file keep their
// default value. An empty path returns DefaultLayout.
func LoadLayout(path string) (Layout, error) {
	layout := DefaultLayout()
	if path == "" {
		return layout, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("reading layout %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &layout); err != nil {
		return Layout{}, fmt.Errorf("parsing layout %s: %w", path, err)
	}

	if layout.Labels == nil {
		layout.Labels = map[string]string{}
	}

	return layout, nil
}
