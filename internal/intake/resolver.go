package intake

import "strings"

// firstNonEmpty returns the first candidate that is non-empty after
// trimming. The ordered-candidates pattern is used for both organization
// id resolution and the free-text message field, so it lives here where it
// can be tested in isolation.
func firstNonEmpty(candidates ...string) string {
	for _, candidate := range candidates {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// resolveOrgID picks the organization id from the ordered candidate list:
// query parameter, then header, then body field.
func resolveOrgID(queryParam, header, bodyField string) string {
	return firstNonEmpty(queryParam, header, bodyField)
}

// resolveMessage picks the free-text field: message, then description,
// then comments.
func resolveMessage(message, description, comments string) string {
	return firstNonEmpty(message, description, comments)
}
