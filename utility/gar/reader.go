// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gar

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4"
)

// Open opens the gar archive from r. It will also check
// if the file is actually a gar archive, will return an error
// when file incorrect.
func Open(r io.ReaderAt) (*Archive, error) {
	rawMagic := make([]byte, MagicLength)
	if num, err := r.ReadAt(rawMagic, 0); err != nil {
		return nil, err
	} else if num < MagicLength || !bytes.Equal(rawMagic, magic[:]) {
		return nil, ErrFileFormat
	}

	headerSizeBytes := make([]byte, HeaderSizeNumberLength)
	if num, err := r.ReadAt(headerSizeBytes, MagicLength); err != nil {
		return nil, err
	} else if num < HeaderSizeNumberLength {
		return nil, ErrFileFormat
	}

	headerSize, err := binaryToint64(headerSizeBytes)
	if err != nil || headerSize <= 0 {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if num, err := r.ReadAt(headerBytes, MagicLength+HeaderSizeNumberLength); err != nil {
		return nil, err
	} else if int64(num) < headerSize {
		return nil, ErrFileFormat
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, ErrFileFormat
	}

	ar := Archive{
		reader: r,
		header: header,
		index:  make(map[string]IndexEntry, len(header.Index)),
	}
	for _, entry := range header.Index {
		ar.index[entry.Name] = entry
	}
	return &ar, nil
}

// Archive provides concurrent io for a gar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader io.ReaderAt
	header Header
	index  map[string]IndexEntry
}

// Header returns the archive metadata, index included.
func (a *Archive) Header() Header {
	return a.header
}

// Index returns the file index in archive order.
func (a *Archive) Index() []IndexEntry {
	return a.header.Index
}

// ReadAll returns the entire contents of a file with a given name.
func (a *Archive) ReadAll(name string) ([]byte, error) {
	f, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	data := make([]byte, f.Size())
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Open returns a Reader for a file in the Archive.
func (a *Archive) Open(name string) (*Reader, error) {
	entry, ok := a.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	section := io.NewSectionReader(a.reader, entry.Offset, entry.CompressedSize)
	return &Reader{
		entry:      entry,
		decompress: lz4.NewReader(section),
	}, nil
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
type Reader struct {
	entry      IndexEntry
	decompress io.Reader
}

// Read reads already decompressed data.
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.decompress.Read(p)
}

// Name returns the file's name in the archive.
func (r *Reader) Name() string {
	return r.entry.Name
}

// Size returns the uncompressed length of the file.
func (r *Reader) Size() int64 {
	return r.entry.Size
}
