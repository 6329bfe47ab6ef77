// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package tmpfile // import "blitznote.com/src/tmpfile"

import "os"

// No file leases here; candidate entries rely on convention alone.

func takeLease(f *os.File)    {}
func releaseLease(f *os.File) {}
