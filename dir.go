// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tmpfile // import "blitznote.com/src/tmpfile"

import (
	"os"
	"path/filepath"
)

// ScratchDir creates a uniquely named directory below parent and returns
// its path:
//
//	ScratchDir("/var/lib/suite", "import-")  →  /var/lib/suite/import-k2v09q
//
// Candidates follow the placeholder pattern, retried on collision like any
// exclusive create. Mode is 0700; an empty parent selects os.TempDir().
//
// Directories have no publish step. Populate the result, then rename it
// yourself if it is meant to become visible under a final name.
func ScratchDir(parent, extra string) (string, error) {
	template, err := dirTemplate(parent, extra)
	if err != nil {
		return "", err
	}

	for i := 0; i < maxAttempts; i++ {
		name, err := expandPattern(template)
		if err != nil {
			return "", err
		}
		err = os.Mkdir(name, 0700)
		if err == nil {
			return name, nil
		}
		if !os.IsExist(err) {
			return "", err
		}
	}
	return "", &os.PathError{Op: "mkdir", Path: template, Err: ErrExhaustedNames}
}

// OpenScratchDir is ScratchDir plus an open handle on the new directory,
// for *at-style syscalls, fchdir, or an Fsync on the directory itself.
func OpenScratchDir(parent, extra string) (string, *os.File, error) {
	name, err := ScratchDir(parent, extra)
	if err != nil {
		return "", nil, err
	}
	d, err := openDirectory(name)
	if err != nil {
		os.Remove(name)
		return "", nil, err
	}
	return name, d, nil
}

// openDirectory insists on getting a directory: O_DIRECTORY where the
// platform knows it, an fstat check everywhere else. The fresh entry could
// have been swapped out between mkdir and open.
func openDirectory(name string) (*os.File, error) {
	d, err := os.OpenFile(name, os.O_RDONLY|flagNoFollow|flagDirectory, 0)
	if err != nil {
		return nil, err
	}
	fi, err := d.Stat()
	if err != nil {
		d.Close()
		return nil, err
	}
	if !fi.IsDir() {
		d.Close()
		return nil, &os.PathError{Op: "open", Path: name, Err: errNotDirectory}
	}
	return d, nil
}

func dirTemplate(parent, extra string) (string, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	if !usableAsExtra(extra) {
		return "", &os.PathError{Op: "mkdir", Path: parent, Err: ErrInvalidTarget}
	}
	return filepath.Join(parent, extra+placeholderRun), nil
}
