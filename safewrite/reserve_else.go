// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package safewrite // import "blitznote.com/src/tmpfile/safewrite"

import "os"

// No preallocation here; the copy that follows sizes the file.
func reserve(f *os.File, anticipatedSize int64) {}
