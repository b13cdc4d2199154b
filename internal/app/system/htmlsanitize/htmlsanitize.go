// Package htmlsanitize strips dangerous markup from user-supplied rich
// text before it is stored. Announcement bodies and event descriptions
// go through Body; plain fields (titles, names) should use the
// normalize package instead.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var bodyPolicy = bluemonday.UGCPolicy()

// Body sanitizes user-generated rich text, keeping common formatting
// tags and dropping scripts, event handlers, and unknown attributes.
func Body(html string) string {
	return bodyPolicy.Sanitize(html)
}
