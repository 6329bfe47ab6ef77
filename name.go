// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tmpfile // import "blitznote.com/src/tmpfile"

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
)

const (
	// Prefix of pattern-mode candidates. The dot keeps them out of casual
	// directory listings, the '#' marks them as in-flight scratch state.
	hiddenMarker = ".#"

	// A run of this many placeholder characters terminates a pattern.
	placeholderRun = "XXXXXX"

	// Name length ceiling of every filesystem this suite gets installed on.
	nameMax = 255

	// How many fresh candidate names a creation loop burns through before
	// it lets the caller see the collision.
	maxAttempts = 100
)

// Terminal errors of the name generator; retrying cannot lift these.
const (
	// ErrInvalidTarget means no usable final path component could be
	// extracted from the input.
	ErrInvalidTarget nameError = "path has no usable final component"

	// ErrInvalidPattern means the input lacks the trailing placeholder run.
	ErrInvalidPattern nameError = "pattern does not end in " + placeholderRun

	// ErrExhaustedNames is given up with after too many candidate names
	// turned out to be taken already.
	ErrExhaustedNames nameError = "no unused candidate name found"
)

type nameError string

// Error implements the error interface.
func (e nameError) Error() string { return string(e) }

// Sources of random name material.
//
// Tests swap these to provoke collisions on demand.
var (
	randomText  = randomTextUsingRand
	patternText = patternTextUsingRand
)

// Draws 16 bytes off the CSPRNG, encoded filesystem-safe.
func randomTextUsingRand() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

// Yields one filling for a placeholder run.
func patternTextUsingRand() (string, error) {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	var b [len(placeholderRun)]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b[:]), nil
}

// Rejects strings that cannot serve as one fresh path component.
func usableAsFilename(s string) bool {
	switch s {
	case "", ".", "..":
		return false
	}
	if strings.ContainsRune(s, '/') || strings.ContainsRune(s, filepath.Separator) {
		return false
	}
	return len(s) <= nameMax
}

// The decoration between base name and random part must not smuggle in
// path structure; anything else, including "", passes.
func usableAsExtra(s string) bool {
	return !strings.ContainsRune(s, '/') && !strings.ContainsRune(s, filepath.Separator) &&
		len(s) < nameMax
}

// PatternName derives a candidate name in placeholder-pattern mode. This:
//
//	/foo/bar/waldo
//
// becomes:
//
//	/foo/bar/.#waldoXXXXXX            (no extra)
//	/foo/bar/.#workwaldoXXXXXX        (extra "work")
//
// Candidates of this mode still contain the placeholder run; they are meant
// for the exclusive-create functions of this package, which substitute the
// placeholders anew on every attempt. A final component that already ends in
// the placeholder run is accepted as a ready-made template, unchanged.
func PatternName(target, extra string) (string, error) {
	dir, base := filepath.Split(target)
	if !usableAsFilename(base) || !usableAsExtra(extra) {
		return "", &os.PathError{Op: "tempname", Path: target, Err: ErrInvalidTarget}
	}
	if strings.HasSuffix(base, placeholderRun) {
		return target, nil
	}

	name := hiddenMarker + extra + base + placeholderRun
	if len(name) > nameMax {
		return "", &os.PathError{Op: "tempname", Path: target, Err: ErrInvalidTarget}
	}
	return dir + name, nil
}

// RandomName derives a candidate name in random-suffix mode. This:
//
//	/foo/bar/waldo
//
// becomes:
//
//	/foo/bar/waldo.2c7b2537331cdb23931e1b382f2b4e10            (no extra)
//	/foo/bar/waldo.work.2c7b2537331cdb23931e1b382f2b4e10       (extra "work")
//
// Every call yields a fresh candidate, always in the same directory as the
// target, which is the precondition for publishing by hard link. Uniqueness
// remains probabilistic: pair this with exclusive-create, and call again
// for a new candidate should you lose the race.
func RandomName(target, extra string) (string, error) {
	dir, base := filepath.Split(target)
	if !usableAsFilename(base) || !usableAsExtra(extra) {
		return "", &os.PathError{Op: "tempname", Path: target, Err: ErrInvalidTarget}
	}

	random, err := randomText()
	if err != nil {
		return "", err
	}
	name := base + "." + random
	if extra != "" {
		name = base + "." + extra + "." + random
	}
	if len(name) > nameMax {
		return "", &os.PathError{Op: "tempname", Path: target, Err: ErrInvalidTarget}
	}
	return dir + name, nil
}

// RandomChildName is RandomName for when the base path is known to be a
// directory: the candidate becomes a fresh entry inside it rather than a
// sibling. Without a base name to decorate, a leading dot keeps the entry
// conventionally invisible:
//
//	/foo/bar  →  /foo/bar/.2c7b2537331cdb23931e1b382f2b4e10
//	          →  /foo/bar/.work.2c7b2537331cdb23931e1b382f2b4e10
func RandomChildName(dir, extra string) (string, error) {
	if !usableAsExtra(extra) {
		return "", &os.PathError{Op: "tempname", Path: dir, Err: ErrInvalidTarget}
	}

	random, err := randomText()
	if err != nil {
		return "", err
	}
	name := "." + random
	if extra != "" {
		name = "." + extra + "." + random
	}
	if len(name) > nameMax {
		return "", &os.PathError{Op: "tempname", Path: dir, Err: ErrInvalidTarget}
	}
	return filepath.Join(dir, name), nil
}

// expandPattern replaces the template's trailing placeholder run with fresh
// material. Pure function; retry loops call it once per attempt instead of
// mutating any shared buffer.
func expandPattern(template string) (string, error) {
	fill, err := patternText()
	if err != nil {
		return "", err
	}
	return template[:len(template)-len(placeholderRun)] + fill, nil
}
