// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func newTestBuilder(c *qt.C) *Builder {
	builder, err := NewBuilder(Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { builder.Close() })
	return builder
}

func TestAddAndWrite(t *testing.T) {
	c := qt.New(t)
	builder := newTestBuilder(c)

	c.Assert(builder.Add("test", strings.NewReader("idunvovkjnreovmegihjbrqlkmfrjnb")), qt.IsNil)
	c.Assert(builder.Add("test2", strings.NewReader("idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb")), qt.IsNil)
	c.Assert(builder.files, qt.HasLen, 2)

	var buf bytes.Buffer
	num, err := builder.WriteTo(&buf)
	c.Assert(err, qt.IsNil)
	c.Assert(num, qt.Equals, int64(buf.Len()))
	c.Assert(buf.Bytes()[:MagicLength], qt.DeepEquals, Magic[:])

	size, err := binaryToint64(buf.Bytes()[MagicLength:])
	c.Assert(err, qt.IsNil)
	var header Header
	c.Assert(gobDecode(&header, buf.Bytes()[MagicLength+HeaderSizeNumberLength:MagicLength+HeaderSizeNumberLength+size]), qt.IsNil)
	c.Assert(header.Author, qt.Equals, "devblok")
	c.Assert(header.Index, qt.HasLen, 2)
	c.Assert(header.Index[1].Offset, qt.Equals, header.Index[0].CompressedSize)
	c.Assert(header.Index[1].Size, qt.Equals, int64(44))
}

func TestAddDuplicate(t *testing.T) {
	c := qt.New(t)
	builder := newTestBuilder(c)

	c.Assert(builder.Add("shader.spv", strings.NewReader("a")), qt.IsNil)
	c.Assert(builder.Add("shader.spv", strings.NewReader("b")), qt.ErrorIs, ErrDuplicateName)
	c.Assert(builder.Len(), qt.Equals, 1)
}

func TestAddConcurrently(t *testing.T) {
	c := qt.New(t)
	builder := newTestBuilder(c)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := builder.Add(fmt.Sprintf("file%02d", i), strings.NewReader(strings.Repeat("x", i*100))); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()
	c.Assert(builder.Len(), qt.Equals, 16)
}

func TestBuilderClose(t *testing.T) {
	c := qt.New(t)
	builder := newTestBuilder(c)

	c.Assert(builder.Add("a", strings.NewReader("a")), qt.IsNil)
	c.Assert(builder.Close(), qt.IsNil)
	_, err := os.Stat(builder.tempDir)
	c.Assert(os.IsNotExist(err), qt.IsTrue)
}
