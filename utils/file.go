package utils

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// ObjectKey builds a collision-free storage key that keeps a readable
// version of the original file name, e.g. "3f0c...-my-logo.png".
func ObjectKey(filename string) string {
	return uuid.NewString() + "-" + SanitizeFilename(filename)
}

func SanitizeFilename(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(base))
	name := slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" {
		name = "file"
	}
	if ext != "" && !slug.IsSlug(strings.TrimPrefix(ext, ".")) {
		ext = ""
	}
	return name + ext
}
