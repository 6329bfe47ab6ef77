// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build unix

package tmpfile // import "blitznote.com/src/tmpfile"

import "golang.org/x/sys/unix"

// Candidate names are always meant to be brand-new. Exclusive creation
// already refuses anything pre-existing; these additionally refuse to be
// redirected when opening entries this package made itself, or to accept
// anything but a directory where one was just created.
const (
	flagNoFollow  = unix.O_NOFOLLOW
	flagDirectory = unix.O_DIRECTORY
)
