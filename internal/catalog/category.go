package catalog

import (
	"strings"

	"storefront/internal/model"
)

// FallbackImage is served when a product has no image.
const FallbackImage = "/fallback.jpg"

// ResolveCategory finds the category whose slug matches. Matching ignores case.
func ResolveCategory(categories []model.Category, slug string) (model.Category, bool) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, c := range categories {
		if c.Slug() == slug {
			return c, true
		}
	}
	return model.Category{}, false
}

// ImageURL turns a stored image reference into a URL the client can load.
func ImageURL(base, path string) string {
	path = strings.TrimSpace(path)
	switch {
	case path == "":
		return FallbackImage
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	}

	base = strings.TrimRight(base, "/")
	path = strings.TrimLeft(path, "/")
	if strings.HasPrefix(path, "uploads/") {
		return base + "/" + path
	}
	return base + "/uploads/" + path
}
