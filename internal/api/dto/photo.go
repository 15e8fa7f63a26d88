package dto

import "strings"

// PhotoURL resolves a stored photo reference against baseURL. Absolute URLs
// pass through unchanged and an empty reference becomes nil.
func PhotoURL(ref *string, baseURL string) *string {
	if ref == nil {
		return nil
	}
	value := strings.TrimSpace(*ref)
	if value == "" {
		return nil
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return &value
	}
	resolved := strings.TrimRight(baseURL, "/") + "/uploads/" + strings.TrimLeft(value, "/")
	return &resolved
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
