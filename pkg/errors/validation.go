package errors

import (
	"strings"
	"unicode"
)

// ValidateModuleID validates a module identifier for safety and correctness.
// Identifiers come straight out of descriptor files found on disk, so names
// that could be used for path traversal are rejected before they reach any
// filesystem operation.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - No path traversal sequences (.., /, \)
//   - Maximum length of 256 characters
func ValidateModuleID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidModuleID, "module id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidModuleID, "module id too long (max 256 characters)")
	}

	for _, r := range id {
		if r == 0 || unicode.IsControl(r) {
			return New(ErrCodeInvalidModuleID, "module id contains control characters")
		}
	}

	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidModuleID, "module id contains path traversal sequence: %s", id)
	}

	if strings.ContainsAny(id, `/\`) {
		return New(ErrCodeInvalidModuleID, "module id contains path separator: %s", id)
	}

	return nil
}

// ValidateSubPath validates a relative path read from a descriptor or a
// configuration mapping before it is joined onto a root directory.
func ValidateSubPath(p string) error {
	if p == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) {
		return New(ErrCodeInvalidPath, "path must be relative: %s", p)
	}

	for _, part := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path contains traversal sequence: %s", p)
		}
	}

	return nil
}
