// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndWrite(t *testing.T) {
	builder := NewBuilder(Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})

	require.NoError(t, builder.AddBytes("test", []byte("idunvovkjnreovmegihjbrqlkmfrjnb")))
	require.NoError(t, builder.AddBytes("test2", []byte("idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb")))
	assert.Equal(t, 2, builder.Len())

	err := builder.AddBytes("test", []byte("again"))
	assert.True(t, errors.Is(err, ErrDuplicate))

	var buf bytes.Buffer
	num, err := builder.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), num)
	assert.Equal(t, magic[:], buf.Bytes()[:MagicLength])
}
