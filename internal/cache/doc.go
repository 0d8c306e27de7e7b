// Package cache stores JSON values on disk with a time-to-live.
//
// Dashboard statistics are expensive aggregate queries; a short-lived file cache lets
// repeated `vcadmin stats` invocations and the browse screen header share one result.
package cache
