// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tmpfile // import "blitznote.com/src/tmpfile"

import (
	"os"
	"path/filepath"
	"strings"
)

// CreateTemporary opens a named scratch file next to target, for callers
// that need a real path to hand around (say, to a child process) before
// publishing. The name follows the placeholder pattern, so target's own
// name stays recognizable in listings while the entry is clearly marked as
// not-the-real-thing.
//
// Pair the result with PublishNamed, or clean up with Close plus os.Remove.
func CreateTemporary(target string, flags int) (*os.File, error) {
	template, err := PatternName(target, "")
	if err != nil {
		return nil, err
	}
	f, err := createExclusive(
		func() (string, error) { return expandPattern(template) },
		sanitizeFlags(flags), modeUnlinkable,
	)
	if err != nil {
		return nil, err
	}
	return forceMode(f, modeUnlinkable)
}

// CreatePattern expands the trailing placeholder run of the caller's own
// template. This is mkstemp minus its historical traps: the file is always
// created exclusively, with mode 0600 regardless of the process umask, and
// symlinks in its place are not followed.
func CreatePattern(pattern string, flags int) (*os.File, error) {
	_, base := filepath.Split(pattern)
	if !usableAsFilename(base) {
		return nil, &os.PathError{Op: "open", Path: pattern, Err: ErrInvalidTarget}
	}
	if !strings.HasSuffix(base, placeholderRun) {
		return nil, &os.PathError{Op: "open", Path: pattern, Err: ErrInvalidPattern}
	}
	f, err := createExclusive(
		func() (string, error) { return expandPattern(pattern) },
		sanitizeFlags(flags), modeUnlinkable,
	)
	if err != nil {
		return nil, err
	}
	return forceMode(f, modeUnlinkable)
}

// forceMode restores the promised mode; the exclusive create before it was
// still subject to the process umask.
func forceMode(f *os.File, mode os.FileMode) (*os.File, error) {
	if err := f.Chmod(mode); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	return f, nil
}

// PublishNamed links content filed under a pattern-derived name (as made by
// CreateTemporary or CreatePattern) to its final name, atomically and
// strictly exclusively: an existing target is reported, never overwritten.
// Afterwards the candidate entry is removed on a best-effort basis.
//
// Flush or close the scratch file first; PublishNamed has only the paths
// and cannot sync for you.
func PublishNamed(scratch, target string) error {
	if err := linkName(scratch, target); err != nil {
		return err
	}
	// Gone already if a rename served as the link. Litter otherwise.
	os.Remove(scratch)
	return nil
}
