package normalize

import (
	"sort"
	"strings"
)

// MaxInlineImageSize bounds data: URLs that are handed to a renderer.
const MaxInlineImageSize = 200 * 1024

type ImageInfo struct {
	IsBase64      bool
	IsLargeBase64 bool
	URL           string
	CanRender     bool
}

// AnalyzeImageURL classifies an evidence value. Oversized inline images are
// flagged so callers can show a placeholder instead of the payload.
func AnalyzeImageURL(value string) ImageInfo {
	trimmed := strings.TrimSpace(value)
	switch {
	case trimmed == "":
		return ImageInfo{}
	case strings.HasPrefix(trimmed, "data:"):
		if len(trimmed) > MaxInlineImageSize {
			return ImageInfo{IsBase64: true, IsLargeBase64: true}
		}
		return ImageInfo{IsBase64: true, URL: trimmed, CanRender: true}
	case strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://"):
		return ImageInfo{URL: trimmed, CanRender: true}
	default:
		return ImageInfo{}
	}
}

var imageURLKeys = []string{"url", "uri", "photoUrl", "imageUrl", "src", "href"}

// ExtractBestImageURL picks a renderable image from an object, trying the
// usual url keys first and then every other string field in key order.
func ExtractBestImageURL(obj map[string]any) string {
	for _, key := range imageURLKeys {
		if s, ok := obj[key].(string); ok {
			if info := AnalyzeImageURL(s); info.CanRender {
				return info.URL
			}
		}
	}

	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if s, ok := obj[key].(string); ok {
			if info := AnalyzeImageURL(s); info.CanRender {
				return info.URL
			}
		}
	}
	return ""
}
