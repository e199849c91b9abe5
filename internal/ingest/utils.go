package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/yacht-extract/constants"
)

// AllowedExt checks if a file extension is one the pipeline accepts.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func allowedPath(path string) bool {
	return AllowedExt(filepath.Ext(path)) && !IsHidden(path)
}
