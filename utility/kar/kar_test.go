// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/kvk/utility/kar"
)

var (
	testString1 = "idunvovkjnreovmegihjbrqlkmfrjnb"
	testString2 = "idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"
)

func build(c *qt.C, files map[string]string) []byte {
	builder, err := kar.NewBuilder(kar.Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	c.Assert(err, qt.IsNil)
	defer builder.Close()

	for name, contents := range files {
		c.Assert(builder.Add(name, strings.NewReader(contents)), qt.IsNil)
	}

	var buf bytes.Buffer
	_, err = builder.WriteTo(&buf)
	c.Assert(err, qt.IsNil)
	return buf.Bytes()
}

func TestCreateAndRead(t *testing.T) {
	c := qt.New(t)
	data := build(c, map[string]string{"test": testString1, "test2": testString2})

	ar, err := kar.Open(bytes.NewReader(data))
	c.Assert(err, qt.IsNil)
	c.Assert(ar.Names(), qt.DeepEquals, []string{"test", "test2"})
	c.Assert(ar.Header().Version, qt.Equals, int64(1))

	f, err := ar.Open("test2")
	c.Assert(err, qt.IsNil)
	c.Assert(f.Size(), qt.Equals, int64(len(testString2)))
	result, err := io.ReadAll(f)
	c.Assert(err, qt.IsNil)
	c.Assert(string(result), qt.Equals, testString2)
}

func TestCreateAndReadAll(t *testing.T) {
	c := qt.New(t)
	large := strings.Repeat(testString1, 4096)
	data := build(c, map[string]string{"test": testString1, "large": large, "empty": ""})

	ar, err := kar.Open(bytes.NewReader(data))
	c.Assert(err, qt.IsNil)

	for name, expected := range map[string]string{"test": testString1, "large": large, "empty": ""} {
		f, err := ar.ReadAll(name)
		c.Assert(err, qt.IsNil)
		c.Assert(string(f), qt.Equals, expected, qt.Commentf(name))
	}
	// compressed, not stored
	c.Assert(len(data) < len(large), qt.IsTrue)
}

func TestReadMissing(t *testing.T) {
	c := qt.New(t)
	ar, err := kar.Open(bytes.NewReader(build(c, map[string]string{"test": testString1})))
	c.Assert(err, qt.IsNil)

	_, err = ar.ReadAll("nope")
	c.Assert(err, qt.ErrorIs, kar.ErrNotFound)
	_, err = ar.Open("nope")
	c.Assert(err, qt.ErrorIs, kar.ErrNotFound)
}

func TestOpenNotAnArchive(t *testing.T) {
	c := qt.New(t)
	data := build(c, map[string]string{"test": testString1})

	tests := []struct {
		about string
		data  []byte
	}{{
		about: "empty",
		data:  nil,
	}, {
		about: "wrong magic",
		data:  append([]byte("TAR\x00"), data[4:]...),
	}, {
		about: "truncated header",
		data:  data[:kar.MagicLength+kar.HeaderSizeNumberLength+2],
	}, {
		about: "garbage header",
		data:  append(append([]byte{}, data[:kar.MagicLength+kar.HeaderSizeNumberLength]...), bytes.Repeat([]byte{0xff}, 256)...),
	}}

	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			_, err := kar.Open(bytes.NewReader(test.data))
			c.Assert(err, qt.ErrorIs, kar.ErrFileFormat)
		})
	}
}
