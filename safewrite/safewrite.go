// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package safewrite persists whole files without ever exposing them
// half-written: content goes into a scratch file first and gains its final
// name in one atomic step. If anything fails along the way it gains no
// name at all.
//
// This is a convenience layer over package tmpfile for the common cases.
// Reach for the underlying primitives when you need the descriptor, or
// write in more than one pass.
package safewrite // import "blitznote.com/src/tmpfile/safewrite"

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"

	"blitznote.com/src/tmpfile"
)

// How many remove-and-publish rounds Replace runs before conceding to a
// competing writer that keeps reclaiming the name.
const replaceAttempts = 10

// ErrNameRejected flags target names that fall outside the acceptable
// alphabet(s); see AcceptableName.
const ErrNameRejected vetError = "file name contains unacceptable runes"

type vetError string

// Error implements the error interface.
func (e vetError) Error() string { return string(e) }

// Options tune target vetting and creation. The zero value vets names
// against printability only, and creates no directories.
type Options struct {
	// Admit only names within these ranges, on top of the hard rejections
	// every name is subject to. nil admits all printable names.
	RestrictNamesTo []*unicode.RangeTable

	// Reject names that are not normalized under this form.
	// Most of the Internet is in NFC.
	EnforceForm *norm.Form

	// Create missing parent directories, using this mode. Zero leaves
	// missing parents to fail the write instead.
	DirMode os.FileMode
}

func (o *Options) prepare(target string) error {
	var restrict []*unicode.RangeTable
	var form *norm.Form
	if o != nil {
		restrict, form = o.RestrictNamesTo, o.EnforceForm
	}
	if !AcceptableName(filepath.Base(target), restrict, form) {
		return &os.PathError{Op: "create", Path: target, Err: ErrNameRejected}
	}

	if o != nil && o.DirMode != 0 {
		if dir := filepath.Dir(target); dir != "." {
			if err := os.MkdirAll(dir, o.DirMode); err != nil {
				return errors.Wrap(err, "creating the target's directory failed")
			}
		}
	}
	return nil
}

// WriteFile writes data to target atomically: afterwards either target
// carries exactly data under its final name, or the error says why the
// filesystem is still exactly as it was. An existing target is never
// overwritten; superseding is Replace's trade.
func WriteFile(target string, data []byte, opts *Options) error {
	_, err := WriteReader(target, bytes.NewReader(data), int64(len(data)), opts)
	return err
}

// WriteReader streams r into a scratch file and publishes it as target.
// anticipatedSize, if known, lets the filesystem set storage aside ahead
// of the copy; 0 is fine. Returns the number of bytes written.
func WriteReader(target string, r io.Reader, anticipatedSize int64, opts *Options) (int64, error) {
	if err := opts.prepare(target); err != nil {
		return 0, err
	}

	w, err := tmpfile.OpenLinkable(target, os.O_WRONLY)
	if err != nil {
		return 0, err
	}
	defer w.Discard()

	reserve(w.File(), anticipatedSize)

	n, err := io.Copy(w, r)
	if err != nil {
		return n, errors.Wrap(err, "writing to the scratch file failed")
	}
	return n, w.Publish(target)
}

// Replace is WriteFile for callers that do mean to supersede an existing
// target. Readers still only ever see the old or the new content in full,
// but between removing the obstacle and publishing anew another writer can
// slip in; Replace then removes and publishes again, a bounded number of
// rounds, so the last writer wins.
func Replace(target string, data []byte, opts *Options) error {
	if err := opts.prepare(target); err != nil {
		return err
	}

	w, err := tmpfile.OpenLinkable(target, os.O_WRONLY)
	if err != nil {
		return err
	}
	defer w.Discard()

	reserve(w.File(), int64(len(data)))
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "writing to the scratch file failed")
	}

	for i := 0; i < replaceAttempts; i++ {
		err = w.Publish(target)
		if err == nil || !errors.Is(err, fs.ErrExist) {
			return err
		}
		if rerr := os.Remove(target); rerr != nil && !os.IsNotExist(rerr) {
			return rerr
		}
	}
	return err
}
