package domain

import "strings"

// ProductData is the structured description of the product extracted by the
// analysis stage. It feeds prompt construction and the spreadsheet report.
type ProductData struct {
	SKUID          string   `json:"sku_id"`
	Description    string   `json:"description"`
	KeyFeatures    []string `json:"key_features"`
	SearchKeywords []string `json:"search_keywords"`
	IdealFor       string   `json:"ideal_for"`
}

// BackgroundSpec describes one background scene planned for a view.
type BackgroundSpec struct {
	View  View
	Name  string
	Scene string
}

// Analysis is the output of the analysis stage: the structured product data
// plus the background plan the generation stage will fan out over.
type Analysis struct {
	Product     ProductData
	Backgrounds []BackgroundSpec
}

// BuildSKUID derives a SKU identifier from the submitting username and
// product name, normalized to uppercase with underscores.
func BuildSKUID(username, product string) string {
	norm := func(s string) string {
		s = strings.TrimSpace(s)
		s = strings.ReplaceAll(s, " ", "_")
		return strings.ToUpper(s)
	}
	return norm(username) + "_" + norm(product)
}
