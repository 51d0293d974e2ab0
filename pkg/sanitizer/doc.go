// Package sanitizer normalizes user-supplied text before validation and
// persistence. Workshop titles, instructor names and image URLs all pass
// through here so equality checks and Mongo filters see canonical values.
package sanitizer
