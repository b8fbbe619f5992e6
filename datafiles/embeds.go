// Package datafiles carries files embedded into binaries.
package datafiles

import _ "embed"

//go:embed entrytable.html
var entryTableHTMLEmbed string

// EntryTableHTML returns the template listing an archive's entries.
func EntryTableHTML() string {
	return entryTableHTMLEmbed
}
