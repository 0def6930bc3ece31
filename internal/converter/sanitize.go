package converter

import (
	"github.com/microcosm-cc/bluemonday"
)

// NewSanitizePolicy returns the policy applied to chapter markup when
// sanitizing is enabled. It keeps user-generated-content markup, classes,
// embedded data URI images and page breaks, and drops scripts, event
// handlers and inline styles.
func NewSanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class", "id").Globally()
	p.AllowDataURIImages()
	p.AllowElements("mbp:pagebreak")
	return p
}
