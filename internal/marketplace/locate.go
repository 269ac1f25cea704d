package marketplace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// ErrNoResultFile means the tool output named no file, or the named file
// does not exist.
var ErrNoResultFile = errors.New("marketplace: result file not found")

// Locator finds the result file a successful run wrote.
type Locator interface {
	Locate(stdout, dir, fileType string) (string, error)
}

var resultStem = regexp.MustCompile(`products\(.+\)_\d+`)

// PatternLocator extracts the products(<term>)_<timestamp> stem the tool
// prints and resolves it against dir.
type PatternLocator struct{}

func (PatternLocator) Locate(stdout, dir, fileType string) (string, error) {
	stem := resultStem.FindString(stdout)
	if stem == "" {
		return "", fmt.Errorf("%w: no file name in tool output", ErrNoResultFile)
	}
	path := filepath.Join(dir, stem+"."+fileType)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoResultFile, path)
	}
	return path, nil
}
