// SPDX-License-Identifier: MIT

package store

import (
	"encoding/binary"
	"hash/crc64"
	"math"

	"github.com/pkg/errors"

	"github.com/katalvlaran/corpex/matrix"
)

const (
	blobVersion   = 1
	blobHeaderLen = 16 // magic(4) + version(4) + rows(4) + cols(4)
	blobTrailer   = 8  // crc64
)

var (
	blobMagic = [4]byte{'C', 'P', 'X', 'M'}
	crcTable  = crc64.MakeTable(crc64.ECMA)
)

// encodeMatrix serialises m as header | float64 data | crc64.
func encodeMatrix(m *matrix.Dense) []byte {
	rows, cols := m.Shape()
	buf := make([]byte, blobHeaderLen+rows*cols*8+blobTrailer)
	copy(buf[0:4], blobMagic[:])
	binary.LittleEndian.PutUint32(buf[4:8], blobVersion)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(rows))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(cols))

	off := blobHeaderLen
	for _, v := range m.RawData() {
		binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(v))
		off += 8
	}
	binary.LittleEndian.PutUint64(buf[off:], crc64.Checksum(buf[:off], crcTable))

	return buf
}

// decodeMatrix validates magic, version, length and checksum.
func decodeMatrix(buf []byte) (*matrix.Dense, error) {
	if len(buf) < blobHeaderLen+blobTrailer {
		return nil, errors.Wrap(ErrCorrupt, "blob too short")
	}
	if [4]byte(buf[0:4]) != blobMagic {
		return nil, errors.Wrap(ErrCorrupt, "invalid magic")
	}
	if v := binary.LittleEndian.Uint32(buf[4:8]); v != blobVersion {
		return nil, errors.Wrapf(ErrCorrupt, "unsupported blob version %d", v)
	}
	rows := int(binary.LittleEndian.Uint32(buf[8:12]))
	cols := int(binary.LittleEndian.Uint32(buf[12:16]))
	end := blobHeaderLen + rows*cols*8
	if len(buf) != end+blobTrailer {
		return nil, errors.Wrapf(ErrCorrupt, "length %d for %dx%d", len(buf), rows, cols)
	}
	if binary.LittleEndian.Uint64(buf[end:]) != crc64.Checksum(buf[:end], crcTable) {
		return nil, errors.Wrap(ErrCorrupt, "checksum mismatch")
	}

	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[blobHeaderLen+i*8:]))
	}
	m, err := matrix.NewFromData(rows, cols, data)
	if err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "%v", err)
	}

	return m, nil
}

// blobChecksum returns the trailing checksum of an encoded blob.
func blobChecksum(buf []byte) uint64 {
	if len(buf) < blobTrailer {
		return 0
	}

	return binary.LittleEndian.Uint64(buf[len(buf)-blobTrailer:])
}
