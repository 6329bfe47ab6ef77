// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package tmpfile // import "blitznote.com/src/tmpfile"

import "os"

// Anonymous descriptors are a Linux capability. Everywhere else the named
// fallbacks are the only game in town, so these stubs steer every caller
// there without a syscall wasted.

func openAnonymous(dir string, flags int, mode os.FileMode, linkable bool) (*os.File, error) {
	return nil, errAnonymousUnsupported
}

func linkDescriptor(f *os.File, target string) error {
	return &os.LinkError{Op: "link", Old: f.Name(), New: target, Err: errAnonymousUnsupported}
}

func linkNameFallback(candidate, target string, cause error) error {
	return cause
}
