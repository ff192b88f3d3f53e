package modules

import (
	"bufio"
	"io"
	"os"
	"strings"

	apperrors "github.com/knightfall-dh/bannerman/pkg/errors"
)

// Modlist is the host's ordered module-enablement list: one `+name`
// (enabled) or `-name` (disabled) entry per line.
type Modlist struct {
	// Enabled holds enabled entry names in file order (lowest priority first).
	Enabled []string

	// Disabled holds disabled entry names in file order.
	Disabled []string
}

// IsDisabled reports whether name appears as an explicitly disabled entry.
func (m Modlist) IsDisabled(name string) bool {
	for _, d := range m.Disabled {
		if d == name {
			return true
		}
	}
	return false
}

// ParseModlist reads the plain-text enablement list format. Blank lines and
// separator entries are ignored; any other line without a +/- prefix is
// skipped too, since the host writes nothing else.
func ParseModlist(r io.Reader) Modlist {
	var m Modlist
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name := line[1:]
		if strings.HasSuffix(name, "_separator") {
			continue
		}
		switch line[0] {
		case '+':
			m.Enabled = append(m.Enabled, name)
		case '-':
			m.Disabled = append(m.Disabled, name)
		}
	}
	return m
}

// LoadModlist reads the enablement list from path. A missing file yields an
// empty list, not an error: a fresh profile has no list yet.
func LoadModlist(path string) (Modlist, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Modlist{}, nil
		}
		return Modlist{}, apperrors.Wrap(apperrors.ErrCodeIO, err, "read modlist %s", path)
	}
	defer f.Close()
	return ParseModlist(f), nil
}
