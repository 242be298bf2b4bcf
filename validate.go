package wbundle

import (
	"fmt"
	"path"
	"strings"
)

// validateName checks that name can be written as a header field and read
// back unchanged.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if err := checkHeaderField(name); err != nil {
		return fmt.Errorf("%w: name %q: %v", ErrInvalidName, name, err)
	}
	return nil
}

func validateType(t string) error {
	if err := checkHeaderField(t); err != nil {
		return fmt.Errorf("%w: type %q: %v", ErrInvalidName, t, err)
	}
	return nil
}

func checkHeaderField(s string) error {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c < sentinelCeiling:
			return fmt.Errorf("byte 0x%02x at %d ends the header", c, i)
		case c == headerFieldSep, c == headerRecordSep:
			return fmt.Errorf("separator %q at %d", c, i)
		case c == headerSoftWrap:
			return fmt.Errorf("newline at %d", i)
		}
	}
	return nil
}

// ExtractPath maps an entry name to a relative, slash-separated path that is
// safe to join under an output directory. Backslashes written by Windows
// producers are treated as separators. Absolute names and names that escape
// the output directory are rejected.
func ExtractPath(name string) (string, error) {
	p := strings.ReplaceAll(name, "\\", "/")
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("%w: path is empty", ErrInvalidName)
	}
	if strings.HasPrefix(p, "/") || (len(p) > 1 && p[1] == ':') {
		return "", fmt.Errorf("%w: path %q must not be absolute", ErrInvalidName, name)
	}
	clean := path.Clean(p)
	if clean == "." {
		return "", fmt.Errorf("%w: path %q must not be current directory", ErrInvalidName, name)
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: path %q must not escape", ErrInvalidName, name)
	}
	return clean, nil
}
