// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package tmpfile // import "blitznote.com/src/tmpfile"

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// Remembers where O_TMPFILE cannot work, so later opens skip straight to
// their fallback instead of re-earning the same errno. One flag covers the
// kernel as a whole, one set the filesystems that refused. Entries are
// never reset: neither condition changes while the process lives.
var anonymousUnusable struct {
	sync.RWMutex
	kernel  bool
	devices map[uint64]struct{}
}

func anonymousUsableIn(dir string) bool {
	anonymousUnusable.RLock()
	defer anonymousUnusable.RUnlock()
	if anonymousUnusable.kernel {
		return false
	}
	if len(anonymousUnusable.devices) == 0 {
		return true
	}
	dev, err := deviceOf(dir)
	if err != nil {
		// Don't guess; the open call will surface the real error.
		return true
	}
	_, refused := anonymousUnusable.devices[dev]
	return !refused
}

func noteAnonymousUnusable(dir string, wholeKernel bool) {
	anonymousUnusable.Lock()
	defer anonymousUnusable.Unlock()
	if wholeKernel {
		anonymousUnusable.kernel = true
		return
	}
	dev, err := deviceOf(dir)
	if err != nil {
		return
	}
	if anonymousUnusable.devices == nil {
		anonymousUnusable.devices = make(map[uint64]struct{})
	}
	anonymousUnusable.devices[dev] = struct{}{}
}

func deviceOf(dir string) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Stat(dir, &st); err != nil {
		return 0, err
	}
	return uint64(st.Dev), nil
}

// openAnonymous opens a descriptor on dir's filesystem that has no
// directory entry anywhere. linkable decides whether the descriptor may
// gain a name later; withholding that option (O_EXCL) is what makes the
// unlinkable flavour tamper-proof.
func openAnonymous(dir string, flags int, mode os.FileMode, linkable bool) (*os.File, error) {
	if !anonymousUsableIn(dir) {
		return nil, errAnonymousUnsupported
	}

	sysflags := flags | unix.O_TMPFILE | unix.O_CLOEXEC
	if !linkable {
		// O_EXCL on top of O_TMPFILE: the kernel rejects any linkat on
		// this descriptor, for good.
		sysflags |= unix.O_EXCL
	}

	fd, err := unix.Open(dir, sysflags, uint32(mode))
	switch err {
	case nil:
		return os.NewFile(uintptr(fd), filepath.Join(dir, "(anonymous)")), nil
	case syscall.EISDIR:
		// The kernel predates O_TMPFILE; that won't change until reboot.
		noteAnonymousUnusable(dir, true)
		return nil, errAnonymousUnsupported
	case syscall.EOPNOTSUPP:
		// This filesystem doesn't implement it. Others still might.
		noteAnonymousUnusable(dir, false)
		return nil, errAnonymousUnsupported
	case syscall.ENOENT:
		// Either dir is gone, or an in-between kernel botched the probe.
		// Not worth caching; the fallback tells the two cases apart.
		return nil, errAnonymousUnsupported
	}
	return nil, &os.PathError{Op: "open", Path: dir, Err: err}
}

// linkDescriptor gives anonymous content its first and final name. The
// round trip through /proc is the unprivileged spelling of "linkat this
// descriptor"; naming the descriptor directly wants CAP_DAC_READ_SEARCH,
// which makes AT_EMPTY_PATH the reserve for when /proc is not mounted.
func linkDescriptor(f *os.File, target string) error {
	err := unix.Linkat(unix.AT_FDCWD, procSelfFd(f), unix.AT_FDCWD, target, unix.AT_SYMLINK_FOLLOW)
	if err == syscall.ENOENT && !procMounted() {
		err = unix.Linkat(int(f.Fd()), "", unix.AT_FDCWD, target, unix.AT_EMPTY_PATH)
	}
	if err != nil {
		return &os.LinkError{Op: "link", Old: f.Name(), New: target, Err: err}
	}
	return nil
}

func procSelfFd(f *os.File) string {
	return "/proc/self/fd/" + strconv.FormatUint(uint64(f.Fd()), 10)
}

func procMounted() bool {
	_, err := os.Stat("/proc/self/fd")
	return err == nil
}

// linkNameFallback keeps exclusive publishing alive on filesystems that
// deny hard links: renameat2 without replacement makes the same promise,
// minus the leftover candidate entry.
func linkNameFallback(candidate, target string, cause error) error {
	le, ok := cause.(*os.LinkError)
	if !ok {
		return cause
	}
	switch le.Err {
	case syscall.EPERM, syscall.EMLINK, syscall.EOPNOTSUPP:
		// Conditions a different primitive can overcome.
	default:
		return cause
	}

	err := unix.Renameat2(unix.AT_FDCWD, candidate, unix.AT_FDCWD, target, unix.RENAME_NOREPLACE)
	switch err {
	case nil:
		return nil
	case syscall.ENOSYS, syscall.EINVAL:
		// No such rename here either; report what the link attempt said.
		return cause
	}
	return &os.LinkError{Op: "rename", Old: candidate, New: target, Err: err}
}
