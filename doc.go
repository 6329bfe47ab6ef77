// Package tmpfile creates scratch files and directories that stay outside
// the observable filesystem namespace until they are complete, and places
// finished content at its final name in one atomic step.
//
// Writing a file the obvious way, in place under its final name,
// publishes every intermediate state. That is poison for system
// daemons which monitor a set of paths and trigger actions in the advent
// of new files, and it leaves a mangled file behind should the writer die
// midway. The functions here invert the order: content first, name last.
//
//	w, err := tmpfile.OpenLinkable("/var/lib/suite/state.json", os.O_WRONLY)
//	if err != nil { … }
//	defer w.Discard()
//
//	// … write everything …
//
//	err = w.Publish("/var/lib/suite/state.json")
//
// On recent Linux with a cooperating filesystem the scratch file is a truly
// anonymous descriptor without any directory entry. This does not work on
// all systems, therefore a graceful degradation to exclusively created
// files under throwaway candidate names is attempted, which any crash
// leaves behind as clearly marked litter rather than a plausible, corrupt
// final file.
//
// Publishing never overwrites: if something else won the final name first,
// Publish reports it and the filesystem is left exactly as it was. Callers
// that want last-writer-wins semantics remove the obstacle and publish
// again, or use package safewrite which wraps that loop.
package tmpfile // import "blitznote.com/src/tmpfile"
