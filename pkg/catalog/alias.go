package catalog

import "strings"

// pathAliases maps legacy or drifted path segments to their canonical
// catalog form. These are deliberate point fixes for known catalog
// inconsistencies, not a general pluralization scheme.
var pathAliases = map[string]string{
	"category":        "product-categories",
	"categories":      "product-categories",
	"inventory":       "inventory-items",
	"inventory-item":  "inventory-items",
	"collection":      "collections",
	"variant":         "product-variants",
	"variants":        "product-variants",
	"fulfillment":     "fulfillments",
	"price-list":      "price-lists",
	"gift-card":       "gift-cards",
	"tax-rate":        "tax-rates",
	"stock-location":  "stock-locations",
	"customer-group":  "customer-groups",
	"shipping-option": "shipping-options",
}

// AliasPath rewrites the first resource segment of a normalized path
// through the alias table. It reports whether a rewrite happened.
func AliasPath(path string) (string, bool) {
	normalized := NormalizePath(path)

	rest := strings.TrimPrefix(normalized, RootSegment)
	rest = strings.TrimPrefix(rest, "/")

	if rest == "" {
		return normalized, false
	}

	head, tail, hasTail := strings.Cut(rest, "/")

	canonical, ok := pathAliases[head]
	if !ok {
		return normalized, false
	}

	aliased := RootSegment + "/" + canonical
	if hasTail {
		aliased += "/" + tail
	}

	return aliased, true
}
