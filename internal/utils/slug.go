package utils

import "github.com/gosimple/slug"

// Slugify turns a tour name into its URL slug, transliterating accented
// letters: "Crème Brûlée Tour" -> "creme-brulee-tour".
func Slugify(s string) string {
	return slug.Make(s)
}
