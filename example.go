// This file is released into the public domain.

//go:build ignore

// Demonstrates the write path end to end: scratch first, publish second.
//
// Run it twice to see the no-overwrite guarantee kick in:
//  go run "this file" /tmp/demo/greeting
package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/pkg/errors"

	"blitznote.com/src/tmpfile"
	"blitznote.com/src/tmpfile/safewrite"
)

func main() {
	target := os.TempDir() + "/greeting"
	if len(os.Args) > 1 {
		target = os.Args[1]
	}

	err := safewrite.WriteFile(target, []byte("all at once, or not at all\n"), &safewrite.Options{
		DirMode: 0750,
	})
	switch {
	case errors.Is(err, fs.ErrExist):
		fmt.Println(target, "already exists; left untouched")
	case err != nil:
		fmt.Println("write failed:", err)
		os.Exit(1)
	default:
		fmt.Println("published", target)
	}

	// Spool space nobody can find by name, gone with the last Close.
	spool, err := tmpfile.OpenUnlinkable("", os.O_RDWR)
	if err != nil {
		fmt.Println("no spool:", err)
		os.Exit(1)
	}
	defer spool.Close()
	fmt.Fprintln(spool, "this line will never be observable by path")
	fmt.Println("spool descriptor lives at:", spool.Name())
}
