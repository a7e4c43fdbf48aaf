package review

import (
	"path/filepath"
	"strings"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/github"
)

// supportedExtensions is the allowlist of file extensions worth sending to
// the model. Lock files, vendored assets, and binary formats are excluded by
// omission.
var supportedExtensions = map[string]bool{
	".go":    true,
	".ts":    true,
	".tsx":   true,
	".js":    true,
	".jsx":   true,
	".py":    true,
	".rb":    true,
	".java":  true,
	".kt":    true,
	".rs":    true,
	".c":     true,
	".h":     true,
	".cpp":   true,
	".cs":    true,
	".php":   true,
	".swift": true,
	".scala": true,
	".sql":   true,
	".sh":    true,
	".yaml":  true,
	".yml":   true,
	".json":  true,
	".tf":    true,
	".md":    true,
}

// FilterSupportedFiles keeps only files whose extension is on the allowlist.
func FilterSupportedFiles(files []github.ChangedFile) []github.ChangedFile {
	filtered := make([]github.ChangedFile, 0, len(files))
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Filename))
		if supportedExtensions[ext] {
			filtered = append(filtered, f)
		}
	}
	return filtered
}
