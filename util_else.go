// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !unix

package tmpfile // import "blitznote.com/src/tmpfile"

// Exclusive creation alone carries the no-redirect guarantee here, and
// directory handles are vetted after the fact.
const (
	flagNoFollow  = 0
	flagDirectory = 0
)
