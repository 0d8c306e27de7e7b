// Package pagination provides the page flags shared by list commands and the
// metadata printed alongside a result page.
package pagination
