// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package safewrite // import "blitznote.com/src/tmpfile/safewrite"

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"

	. "github.com/smartystreets/goconvey/convey"
)

func TestWriteFile(t *testing.T) {
	Convey("WriteFile", t, func() {
		dir := t.TempDir()
		target := filepath.Join(dir, "state.json")

		Convey("puts a fresh target in place with exactly the payload", FailureContinues, func() {
			So(WriteFile(target, []byte(`{"epoch":1}`), nil), ShouldBeNil)

			content, err := os.ReadFile(target)
			So(err, ShouldBeNil)
			So(string(content), ShouldEqual, `{"epoch":1}`)

			entries, err := os.ReadDir(dir)
			So(err, ShouldBeNil)
			So(len(entries), ShouldEqual, 1)
		})

		Convey("never overwrites an existing target", FailureContinues, func() {
			So(WriteFile(target, []byte("first"), nil), ShouldBeNil)

			err := WriteFile(target, []byte("second"), nil)
			So(errors.Is(err, fs.ErrExist), ShouldBeTrue)

			content, err := os.ReadFile(target)
			So(err, ShouldBeNil)
			So(string(content), ShouldEqual, "first")
		})

		Convey("fails on missing parents, unless told to create them", FailureContinues, func() {
			nested := filepath.Join(dir, "a", "b", "state.json")
			So(WriteFile(nested, []byte("x"), nil), ShouldNotBeNil)

			So(WriteFile(nested, []byte("x"), &Options{DirMode: 0750}), ShouldBeNil)
			content, err := os.ReadFile(nested)
			So(err, ShouldBeNil)
			So(string(content), ShouldEqual, "x")
		})
	})
}

func TestWriteReader(t *testing.T) {
	Convey("WriteReader", t, func() {
		dir := t.TempDir()
		target := filepath.Join(dir, "spool.bin")

		Convey("reports the bytes written, and sizes the target exactly", FailureContinues, func() {
			// Comfortably past the preallocation threshold.
			payload := strings.Repeat("spool ", 1<<14)

			n, err := WriteReader(target, strings.NewReader(payload), int64(len(payload)), nil)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, int64(len(payload)))

			info, err := os.Stat(target)
			So(err, ShouldBeNil)
			So(info.Size(), ShouldEqual, int64(len(payload)))
		})

		Convey("leaves no trace when the source fails midway", FailureContinues, func() {
			r := io.MultiReader(
				strings.NewReader("partial"),
				iotest.ErrReader(errors.New("burst pipe")),
			)

			_, err := WriteReader(target, r, 0, nil)
			So(err, ShouldNotBeNil)

			_, err = os.Stat(target)
			So(os.IsNotExist(err), ShouldBeTrue)
			entries, _ := os.ReadDir(dir)
			So(entries, ShouldBeEmpty)
		})
	})
}

func TestReplace(t *testing.T) {
	Convey("Replace", t, func() {
		dir := t.TempDir()
		target := filepath.Join(dir, "state.json")

		Convey("supersedes an existing target", FailureContinues, func() {
			So(WriteFile(target, []byte("first"), nil), ShouldBeNil)
			So(Replace(target, []byte("second"), nil), ShouldBeNil)

			content, err := os.ReadFile(target)
			So(err, ShouldBeNil)
			So(string(content), ShouldEqual, "second")

			entries, _ := os.ReadDir(dir)
			So(len(entries), ShouldEqual, 1)
		})

		Convey("works just as well without a pre-existing target", func() {
			So(Replace(target, []byte("only"), nil), ShouldBeNil)

			content, err := os.ReadFile(target)
			So(err, ShouldBeNil)
			So(string(content), ShouldEqual, "only")
		})
	})
}

func TestTargetVetting(t *testing.T) {
	Convey("Target names failing the vetting never reach the filesystem", t, FailureContinues, func() {
		dir := t.TempDir()

		Convey("hard rejections apply regardless of options", FailureContinues, func() {
			err := WriteFile(filepath.Join(dir, "line\nbreak"), []byte("x"), nil)
			So(errors.Is(err, ErrNameRejected), ShouldBeTrue)

			err = WriteFile(filepath.Join(dir, "Samba?"), []byte("x"), nil)
			So(errors.Is(err, ErrNameRejected), ShouldBeTrue)

			entries, _ := os.ReadDir(dir)
			So(entries, ShouldBeEmpty)
		})

		Convey("restricted alphabets narrow what is admitted", FailureContinues, func() {
			azOnly, err := ParseUnicodeBlockList(`x002e-x002e x0061-x007a`)
			So(err, ShouldBeNil)
			opts := &Options{RestrictNamesTo: []*unicode.RangeTable{azOnly}}

			err = WriteFile(filepath.Join(dir, "straße"), []byte("x"), opts)
			So(errors.Is(err, ErrNameRejected), ShouldBeTrue)

			So(WriteFile(filepath.Join(dir, "plain.name"), []byte("x"), opts), ShouldBeNil)
		})

		Convey("a normal form can be demanded of new names", func() {
			form := norm.NFC
			opts := &Options{EnforceForm: &form}

			err := WriteFile(filepath.Join(dir, "säet"), []byte("x"), opts)
			So(errors.Is(err, ErrNameRejected), ShouldBeTrue)

			So(WriteFile(filepath.Join(dir, "säet"), []byte("x"), opts), ShouldBeNil)
		})
	})
}
