// Package templates embeds the report templates shipped with promoter.
package templates

import (
	"embed"
	"io/fs"
)

// EmailReport is the HTML body of the email notification, relative to
// NotifyFS.
const EmailReport = "email.html.tmpl"

// notifyTemplates embeds the notifier templates.
// The structure is:
//   - notify/*.tmpl (one file per notifier that renders a template)
//
//go:embed notify
var notifyTemplates embed.FS

// NotifyFS returns the notifier templates rooted at the notify directory.
func NotifyFS() fs.FS {
	sub, err := fs.Sub(notifyTemplates, "notify")
	if err != nil {
		// The directory is embedded at build time.
		panic(err)
	}
	return sub
}
