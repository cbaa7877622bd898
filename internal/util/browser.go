package util

import (
	"fmt"
	"strings"

	"github.com/pkg/browser"
)

// OpenURL opens u in the system's default browser. Only http and https URLs
// are accepted.
func OpenURL(u string) error {
	if !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "http://") {
		return fmt.Errorf("refusing to open non-http URL %q", u)
	}
	if err := browser.OpenURL(u); err != nil {
		return fmt.Errorf("opening browser: %w", err)
	}
	return nil
}
