package filesystem

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
)

// ResolvePath converts a DocID produced by a Lister rooted at root back
// into a local file path. Identifiers that would escape the root, or that
// name a hidden file, are rejected with domain.ErrInvalidInput.
func ResolvePath(root string, id domain.DocID) (string, error) {
	rel := id.UniqueID()
	if rel == "" {
		return "", fmt.Errorf("%w: empty document id", domain.ErrInvalidInput)
	}
	if strings.HasPrefix(rel, "/") || strings.Contains(rel, "\\") {
		return "", fmt.Errorf("%w: %q is not a relative slash path", domain.ErrInvalidInput, rel)
	}
	for _, part := range strings.Split(rel, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("%w: %q is not a clean path", domain.ErrInvalidInput, rel)
		}
	}
	if isHidden(rel) {
		return "", fmt.Errorf("%w: %q is hidden", domain.ErrInvalidInput, rel)
	}
	return filepath.Join(root, filepath.FromSlash(rel)), nil
}
