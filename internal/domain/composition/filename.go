package composition

import (
	"strings"

	"github.com/turtacn/perovskite-json/pkg/errors"
)

const (
	// PlainTextExt is stripped from user-supplied names.
	PlainTextExt = ".txt"
	// DocumentExt is the extension every written document carries.
	DocumentExt = ".json"
)

// NormalizeFileName turns a user-supplied name into a document file name:
// "run1.txt" and "run1" both become "run1.json"; "run1.json" is kept.
func NormalizeFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, PlainTextExt)
	if name == "" || name == DocumentExt {
		return "", errors.New(errors.ErrCodeInvalidFileName, "file name must not be empty")
	}
	if strings.ContainsAny(name, `/\`) {
		return "", errors.New(errors.ErrCodeInvalidFileName, "file name must not contain a path separator").
			WithDetail("name=" + name)
	}
	if !strings.HasSuffix(name, DocumentExt) {
		name += DocumentExt
	}
	return name, nil
}
