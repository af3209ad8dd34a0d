// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gar is an api for an lz4 backed resource archive format.
// Its purpose is to bundle the files an execution run needs, shader
// binaries first of all, in a form well suited for streaming them
// straight into a device. It's designed to be memory mapped, so
// (unlike tar) it knows where all the files are located before
// they're read. This nescesitates a bit of an unusual setup, where
// the archive itself is not compressed in any form, rather every file
// is individually compressed, so it could be immediately read from
// its place and decompressed on the fly. This somewhat compromises
// space efficiency, but space efficiency is not the primary goal of
// this package. It instead focuses on getting resources from disk to
// a usable state as fast as possible. It can be read from
// concurrently.
package gar

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
)

// package errors
var (
	ErrFileFormat = errors.New("corrupted or not a gar archive")
	ErrNotFound   = errors.New("no such file in archive")
)

// Sizes relevant to the header of file
const (
	MagicLength            = 4
	HeaderSizeNumberLength = 16
)

var magic = [MagicLength]byte{'G', 'A', 'R', '\x00'}

// IndexEntry is info for one file in the file index. Offset points at
// the compressed bytes from the start of the archive, Size is the
// uncompressed length.
type IndexEntry struct {
	Name           string
	Offset         int64
	Size           int64
	CompressedSize int64
}

// Header is the file header for gar files.
type Header struct {
	Author      string
	DateCreated int64
	Version     int64
	Index       []IndexEntry
}

// MaxExpectedSize calculates the amount of space a Header could take.
// It's important to know this before writing the header into the file.
// It only needs to be roughly correct, offsets will be calculated
// with consideration for this number.
func (h *Header) MaxExpectedSize() int64 {
	size := int64(512) // gob type descriptors and the top level fields
	size += int64(len(h.Author))
	for _, e := range h.Index {
		size += int64(len(e.Name))
		size += 64 // three varints and per entry framing
	}
	return size
}

func int64ToBinary(num int64) []byte {
	numBytes := make([]byte, HeaderSizeNumberLength)
	binary.PutVarint(numBytes, num)
	return numBytes
}

func binaryToint64(bts []byte) (int64, error) {
	num, err := binary.ReadVarint(bytes.NewReader(bts))
	if err != nil {
		return 0, err
	}
	return num, nil
}

func gobEncode(data interface{}) ([]byte, error) {
	var encoded bytes.Buffer
	enc := gob.NewEncoder(&encoded)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return encoded.Bytes(), nil
}

func gobDecode(obj interface{}, bts []byte) error {
	dec := gob.NewDecoder(bytes.NewBuffer(bts))
	if err := dec.Decode(obj); err != nil {
		return err
	}
	return nil
}
