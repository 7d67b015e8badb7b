package generation

import (
	"fmt"
	"strings"

	"github.com/oselle/lookbook-api/internal/domain"
)

// aspectRatioDescriptions maps supported ratios to the phrasing the image
// models respond to most reliably.
var aspectRatioDescriptions = map[string]string{
	"1:1":  "square aspect ratio (1:1, equal width and height)",
	"16:9": "landscape orientation with 16:9 aspect ratio (width 1.78x height)",
	"4:3":  "landscape orientation with 4:3 aspect ratio (width 1.33x height)",
	"3:4":  "portrait orientation with 3:4 aspect ratio (height 1.33x width)",
	"9:16": "portrait orientation with 9:16 aspect ratio (height 1.78x width)",
}

// BuildPrompt composes the generation prompt for one background scene from
// the analyzed product data. Gender, when provided, overrides the model type
// inferred from the product's ideal-for field.
func BuildPrompt(product domain.ProductData, scene, aspectRatio, gender string) string {
	modelType := modelTypeFor(product, gender)

	ratioDesc, ok := aspectRatioDescriptions[aspectRatio]
	if !ok {
		ratioDesc = aspectRatioDescriptions["9:16"]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Professional fashion photography of an %s wearing the exact product "+
		"shown in the reference images, %s. ", modelType, scene)
	if product.Description != "" {
		fmt.Fprintf(&b, "Product: %s. ", product.Description)
	}
	if len(product.KeyFeatures) > 0 {
		fmt.Fprintf(&b, "Preserve these product details faithfully: %s. ",
			strings.Join(product.KeyFeatures, ", "))
	}
	fmt.Fprintf(&b, "Full body shot, natural pose, photorealistic, high detail, %s.", ratioDesc)

	return b.String()
}

func modelTypeFor(product domain.ProductData, gender string) string {
	switch strings.ToLower(gender) {
	case "male":
		return "Indian man"
	case "female":
		return "Indian woman"
	}

	idealFor := strings.ToLower(product.IdealFor)
	switch {
	case strings.Contains(idealFor, "women") || strings.Contains(idealFor, "female"):
		return "Indian woman"
	case strings.Contains(idealFor, "men") || strings.Contains(idealFor, "male"):
		return "Indian man"
	default:
		return "Indian woman"
	}
}
