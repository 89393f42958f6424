package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.UGCPolicy()

// Sanitize strips dangerous markup from user-submitted post and comment text
// before it is persisted. Benign formatting tags survive.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
