// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/kvk/utility/kar"
)

func writeArchive(c *qt.C, files map[string]string) string {
	path := filepath.Join(c.TempDir(), "opentest.kar")
	c.Assert(os.WriteFile(path, build(c, files), 0o644), qt.IsNil)
	return path
}

func TestOpenFile(t *testing.T) {
	c := qt.New(t)
	path := writeArchive(c, map[string]string{
		"test/test1.txt": "this is a test",
		"test/test2.txt": "this is another test",
	})

	ar, err := kar.OpenFile(path)
	c.Assert(err, qt.IsNil)
	defer ar.Close()

	f, err := ar.ReadAll("test/test1.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(string(f), qt.Equals, "this is a test")

	f, err = ar.ReadAll("test/test2.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(string(f), qt.Equals, "this is another test")
}

func TestOpenFileNotAnArchive(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(c.TempDir(), "plain.txt")
	c.Assert(os.WriteFile(path, []byte("definitely not an archive"), 0o644), qt.IsNil)

	_, err := kar.OpenFile(path)
	c.Assert(err, qt.ErrorIs, kar.ErrFileFormat)

	_, err = kar.OpenFile(filepath.Join(c.TempDir(), "missing.kar"))
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestConcurrentReads(t *testing.T) {
	c := qt.New(t)
	files := map[string]string{
		"a.spv": "vertex shader bytes",
		"b.spv": "fragment shader bytes",
		"c.spv": "compute shader bytes",
	}
	ar, err := kar.OpenFile(writeArchive(c, files))
	c.Assert(err, qt.IsNil)
	defer ar.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		for name, expected := range files {
			wg.Add(1)
			go func(name, expected string) {
				defer wg.Done()
				data, err := ar.ReadAll(name)
				if err != nil || string(data) != expected {
					t.Errorf("read %s: %q, %v", name, data, err)
				}
			}(name, expected)
		}
	}
	wg.Wait()
}
