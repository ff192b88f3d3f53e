package modules

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/knightfall-dh/bannerman/pkg/errors"
)

// Version is a Bannerlord module version: an optional 'v' or 'e' prefix and
// up to five dot-separated numeric components. Only the first four take part
// in comparisons; the fifth (revision) is carried for display fidelity.
type Version struct {
	Prefix      byte // 'v' or 'e'; 'v' when the input had none
	Parts       [4]int
	Revision    int
	HasRevision bool
}

// DefaultVersion is what unparseable or missing version text normalizes to.
func DefaultVersion() Version {
	return Version{Prefix: 'v', Parts: [4]int{1, 0, 0, 0}}
}

// ParseVersion parses the loose [v|e]major.minor.patch[.build[.revision]]
// grammar. Missing trailing components are right-padded with zeros up to
// four. Anything else fails with an INVALID_VERSION error; callers are
// expected to fall back to DefaultVersion and treat the failure as a
// non-fatal anomaly.
func ParseVersion(raw string) (Version, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DefaultVersion(), apperrors.New(apperrors.ErrCodeInvalidVersion, "empty version")
	}

	v := Version{Prefix: 'v'}
	if s[0] == 'v' || s[0] == 'e' {
		v.Prefix = s[0]
		s = s[1:]
	}

	fields := strings.Split(s, ".")
	if len(fields) < 3 || len(fields) > 5 {
		return DefaultVersion(), apperrors.New(apperrors.ErrCodeInvalidVersion, "version %q has %d components, want 3 to 5", raw, len(fields))
	}

	nums := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 || strings.HasPrefix(f, "+") {
			return DefaultVersion(), apperrors.New(apperrors.ErrCodeInvalidVersion, "version %q component %q is not a number", raw, f)
		}
		nums[i] = n
	}

	copy(v.Parts[:], nums)
	if len(nums) == 5 {
		v.Revision = nums[4]
		v.HasRevision = true
	}
	return v, nil
}

// ParseVersionOrDefault parses raw and swallows the error, returning the
// default version for anything unparseable.
func ParseVersionOrDefault(raw string) Version {
	v, err := ParseVersion(raw)
	if err != nil {
		return DefaultVersion()
	}
	return v
}

// String renders the version with its prefix and four components, plus the
// revision when one was present in the input.
func (v Version) String() string {
	base := fmt.Sprintf("%c%d.%d.%d.%d", v.Prefix, v.Parts[0], v.Parts[1], v.Parts[2], v.Parts[3])
	if v.HasRevision {
		return fmt.Sprintf("%s.%d", base, v.Revision)
	}
	return base
}

// Bare renders the version without its prefix character, the form the
// launcher data document stores.
func (v Version) Bare() string {
	s := v.String()
	return s[1:]
}

// Compare orders two versions component-by-component over the first four
// components. It returns -1, 0 or 1.
func (v Version) Compare(o Version) int {
	for i := range v.Parts {
		switch {
		case v.Parts[i] < o.Parts[i]:
			return -1
		case v.Parts[i] > o.Parts[i]:
			return 1
		}
	}
	return 0
}

// SatisfiesConstraint reports whether v meets a dependency's minimum-version
// constraint. A constraint of "*" always succeeds. A trailing ".*" limits the
// comparison to the leading components ("1.1.*" checks major.minor only).
// Anything unparseable is advisory-only input from a foreign descriptor and
// is treated as satisfied.
func (v Version) SatisfiesConstraint(constraint string) bool {
	c := strings.TrimSpace(constraint)
	if c == "" || c == "*" {
		return true
	}
	if len(c) > 0 && (c[0] == 'v' || c[0] == 'e') {
		c = c[1:]
	}

	fields := strings.Split(c, ".")
	if fields[len(fields)-1] == "*" {
		fields = fields[:len(fields)-1]
	}
	if len(fields) == 0 || len(fields) > 4 {
		return true
	}

	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return true
		}
		switch {
		case v.Parts[i] > n:
			return true
		case v.Parts[i] < n:
			return false
		}
	}
	return true
}
