// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/pierrec/lz4"
)

// Open opens the kar archive from r. It will also check
// if the file is actually a kar archive, will return an error
// when file incorrect.
func Open(r io.ReaderAt) (*Archive, error) {
	prefix := make([]byte, MagicLength+HeaderSizeNumberLength)
	if _, err := r.ReadAt(prefix, 0); err != nil {
		if err == io.EOF {
			return nil, ErrFileFormat
		}
		return nil, err
	}
	if !bytes.Equal(prefix[:MagicLength], magic[:]) {
		return nil, ErrFileFormat
	}

	headerSize := binaryToInt64(prefix[MagicLength:])
	if headerSize <= 0 || headerSize > 1<<30 {
		return nil, ErrFileFormat
	}
	headerBytes := make([]byte, headerSize)
	if _, err := r.ReadAt(headerBytes, int64(len(prefix))); err != nil {
		if err == io.EOF {
			return nil, ErrFileFormat
		}
		return nil, err
	}

	ar := &Archive{
		reader:     r,
		dataOffset: int64(len(prefix)) + headerSize,
		index:      make(map[string]IndexEntry),
	}
	if err := gobDecode(&ar.header, headerBytes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileFormat, err)
	}
	for _, e := range ar.header.Index {
		ar.index[e.Name] = e
	}
	return ar, nil
}

// OpenBytes opens an archive held in memory.
func OpenBytes(data []byte) (*Archive, error) {
	return Open(bytes.NewReader(data))
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader     io.ReaderAt
	dataOffset int64
	header     Header
	index      map[string]IndexEntry
}

// Header returns the archive header.
func (a *Archive) Header() Header {
	return a.header
}

// Names lists the files in name order.
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.index))
	for name := range a.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stat returns the index entry of a file.
func (a *Archive) Stat(name string) (IndexEntry, error) {
	e, ok := a.index[name]
	if !ok {
		return IndexEntry{}, fmt.Errorf("%w: %s", ErrNotExist, name)
	}
	return e, nil
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	r, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	data := make([]byte, r.entry.Size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("kar: read %s: %w", name, err)
	}
	return data, nil
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	e, err := a.Stat(name)
	if err != nil {
		return nil, err
	}
	section := io.NewSectionReader(a.reader, a.dataOffset+e.Offset, e.CompressedSize)
	return &Reader{
		entry: e,
		lz:    lz4.NewReader(section),
	}, nil
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
type Reader struct {
	entry IndexEntry
	lz    *lz4.Reader
}

// Read reads already decompressed data
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.lz.Read(p)
}

// Size returns the decompressed size of the file.
func (r *Reader) Size() int64 {
	return r.entry.Size
}
