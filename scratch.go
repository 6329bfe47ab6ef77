// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tmpfile // import "blitznote.com/src/tmpfile"

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	// Scratch files that never gain a visible name die with their
	// descriptor; nobody else will ever need to read them.
	modeUnlinkable = 0600

	// Linkable scratch files eventually serve arbitrary readers under
	// their final name, so they start with the customary bits. The
	// process umask applies on top, as it would for any create.
	modeLinkable = 0644
)

// Conditions this package's creation and publish steps run into.
const (
	errAnonymousUnsupported scratchError = "anonymous scratch files are not supported here"
	errAlreadyPublished     scratchError = "scratch file has already been published"
	errNotDirectory         scratchError = "not a directory"
)

type scratchError string

// Error implements the error interface.
func (e scratchError) Error() string { return string(e) }

// Creation disposition is owned by this package's algorithms. Whatever the
// caller passes is reduced to access mode and I/O behaviour.
func sanitizeFlags(flags int) int {
	return flags &^ (os.O_CREATE | os.O_EXCL | os.O_TRUNC)
}

// A ScratchFile accumulates content away from the observable namespace
// until the content either gains its final name (Publish) or vanishes
// without trace (Discard).
//
// The two implementations behind this interface mirror what the platform
// offers: a truly anonymous descriptor, or (second choice) an exclusively
// created file under a throwaway candidate name. Callers are meant not to
// care which one they got.
type ScratchFile interface {
	io.Writer

	// Publish gives the accumulated content its final name, atomically.
	// Flushed content is on disk before the name appears. If target
	// already exists, Publish changes nothing, leaves the scratch file
	// usable, and returns an error satisfying errors.Is(err, fs.ErrExist).
	Publish(target string) error

	// Discard abandons the scratch file and reclaims its name and storage.
	// Safe to defer alongside Publish: after a successful Publish it
	// merely closes the descriptor, leaving the published file alone.
	Discard() error

	// File exposes the open descriptor for everything beyond io.Writer,
	// such as Seek, ReadAt, or handing it to a syscall.
	File() *os.File

	// Name is the candidate name the content currently sits under, or ""
	// if the content is anonymous. Informational only; Publish does not
	// need it.
	Name() string
}

// Scratch content held by an anonymous descriptor. Only ever handed out
// where openAnonymous succeeds.
type anonymousFile struct {
	f         *os.File
	published bool
}

func (p *anonymousFile) Write(b []byte) (int, error) { return p.f.Write(b) }
func (p *anonymousFile) File() *os.File              { return p.f }
func (p *anonymousFile) Name() string                { return "" }

func (p *anonymousFile) Publish(target string) error {
	if p.published {
		return &os.LinkError{Op: "link", Old: p.f.Name(), New: target, Err: errAlreadyPublished}
	}
	if err := p.f.Sync(); err != nil {
		return errors.Wrap(err, "flushing scratch file before publishing failed")
	}
	if err := linkDescriptor(p.f, target); err != nil {
		return err
	}
	p.published = true
	return nil
}

func (p *anonymousFile) Discard() error {
	// No directory entry exists; the last Close releases the storage.
	return p.f.Close()
}

// Scratch content filed under a candidate name, for environments without
// anonymous descriptors. f.Name() is the candidate.
type namedFile struct {
	f         *os.File
	published bool
}

func (p *namedFile) Write(b []byte) (int, error) { return p.f.Write(b) }
func (p *namedFile) File() *os.File              { return p.f }
func (p *namedFile) Name() string                { return p.f.Name() }

func (p *namedFile) Publish(target string) error {
	if p.published {
		return &os.LinkError{Op: "link", Old: p.f.Name(), New: target, Err: errAlreadyPublished}
	}
	if err := p.f.Sync(); err != nil {
		return errors.Wrap(err, "flushing scratch file before publishing failed")
	}
	if err := linkName(p.f.Name(), target); err != nil {
		return err
	}
	p.published = true
	releaseLease(p.f)
	// The candidate entry is a mere leftover now. Failing to remove it is
	// litter, not a publish failure: target is fully in place.
	os.Remove(p.f.Name())
	return nil
}

func (p *namedFile) Discard() error {
	if !p.published {
		releaseLease(p.f)
		os.Remove(p.f.Name())
	}
	return p.f.Close()
}

// OpenUnlinkable opens a file on dir's filesystem that has no name and, as
// far as the platform can enforce it, can never be given one. Use it for
// spool space and secrets: close the descriptor and every trace is gone.
//
// flags selects access mode and I/O behaviour (os.O_RDWR, os.O_APPEND,
// os.O_SYNC, …); creation bits are implied. An empty dir falls back to
// os.TempDir().
func OpenUnlinkable(dir string, flags int) (*os.File, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	flags = sanitizeFlags(flags)

	f, err := openAnonymous(dir, flags, modeUnlinkable, false)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, errAnonymousUnsupported) {
		return nil, err
	}
	return openUnlinkableIn(dir, flags)
}

// The unlinkable fallback: exclusive-create under a fresh candidate name,
// then take the name away again. A directory lister running in parallel can
// glimpse the entry between those two steps; it carries no content at that
// point and no meaningful name.
func openUnlinkableIn(dir string, flags int) (*os.File, error) {
	f, err := createExclusive(
		func() (string, error) { return RandomChildName(dir, "unlink") },
		flags, modeUnlinkable,
	)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(f.Name()); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "unlinking the fresh scratch file failed")
	}
	return f, nil
}

// OpenLinkable opens a scratch file destined to become target. It lives on
// target's filesystem, the precondition for an atomic Publish, and stays
// out of sight until then: as an anonymous descriptor where the platform
// has those, else under a candidate name no consumer of target looks at.
//
// Callers that don't publish must Discard, or the named flavour stays
// behind as litter.
func OpenLinkable(target string, flags int) (ScratchFile, error) {
	dir, base := filepath.Split(target)
	if !usableAsFilename(base) {
		return nil, &os.PathError{Op: "open", Path: target, Err: ErrInvalidTarget}
	}
	if dir == "" {
		dir = "."
	}
	flags = sanitizeFlags(flags)

	f, err := openAnonymous(dir, flags, modeLinkable, true)
	if err == nil {
		return &anonymousFile{f: f}, nil
	}
	if !errors.Is(err, errAnonymousUnsupported) {
		return nil, err
	}
	return openLinkableIn(target, flags)
}

// The linkable fallback: the content sits under a random sibling name of
// the target until Publish links it over, leased to keep premature readers
// at bay where the kernel plays along.
func openLinkableIn(target string, flags int) (ScratchFile, error) {
	f, err := createExclusive(
		func() (string, error) { return RandomName(target, "") },
		flags, modeLinkable,
	)
	if err != nil {
		return nil, err
	}
	takeLease(f)
	return &namedFile{f: f}, nil
}

// createExclusive opens a brand-new file, asking candidates for a fresh
// name after every collision, up to this package's attempt bound. Any error
// other than "exists" aborts the loop: it would strike again regardless of
// the name.
func createExclusive(candidates func() (string, error), flags int, mode os.FileMode) (*os.File, error) {
	var name string
	for i := 0; i < maxAttempts; i++ {
		var err error
		name, err = candidates()
		if err != nil {
			return nil, err
		}
		f, err := os.OpenFile(name, flags|os.O_CREATE|os.O_EXCL|flagNoFollow, mode)
		if err == nil {
			return f, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}
	}
	return nil, &os.PathError{Op: "open", Path: name, Err: ErrExhaustedNames}
}

// linkName gives content filed under a candidate name its final, second
// name. Strictly exclusive: a pre-existing target means defeat, never
// replacement. The candidate entry remains; callers dispose of it.
func linkName(candidate, target string) error {
	err := os.Link(candidate, target)
	if err != nil {
		return linkNameFallback(candidate, target, err)
	}
	return nil
}
