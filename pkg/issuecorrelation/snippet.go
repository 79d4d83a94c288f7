package issuecorrelation

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveSource maps a result URI to a file below root. It returns "" for
// URIs with a non-file scheme and for paths that escape root.
func ResolveSource(root, uri string) string {
	if strings.TrimSpace(root) == "" || strings.TrimSpace(uri) == "" {
		return ""
	}
	uri = strings.TrimPrefix(uri, "file://")
	if strings.Contains(uri, "://") {
		return ""
	}
	p := filepath.FromSlash(uri)
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.Clean(p)
}

// ComputeSnippetHash reads the snippet (single line or range) that uri points
// to below root and returns its SHA256 hex string. Lines are compared without
// surrounding whitespace, so re-indenting code keeps the hash. Returns empty
// string on any error or if inputs are invalid.
func ComputeSnippetHash(root, uri string, line, endLine int) string {
	localPath := ResolveSource(root, uri)
	if localPath == "" || line <= 0 {
		return ""
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return ""
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	start := line
	end := line
	if endLine > line {
		end = endLine
	}
	// 1-based line numbers
	if start > len(lines) {
		return ""
	}
	if end > len(lines) {
		end = len(lines)
	}
	snippet := lines[start-1 : end]
	for i, l := range snippet {
		snippet[i] = strings.TrimSpace(l)
	}
	sum := sha256.Sum256([]byte(strings.Join(snippet, "\n")))
	return fmt.Sprintf("%x", sum[:])
}
