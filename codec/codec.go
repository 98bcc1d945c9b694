// Package codec compresses values stored through mdbxkv.
//
// Stored values carry a one-byte codec tag followed by the payload, so a
// database can hold values written under different codecs and readers pick
// the decoder from the tag.
package codec

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec compresses and decompresses values. Implementations are safe for
// concurrent use.
type Codec interface {
	// Name returns the codec name used in configuration
	Name() string
	// ID returns the tag byte written in front of stored values
	ID() byte
	// Encode appends the compressed form of src to dst
	Encode(dst, src []byte) ([]byte, error)
	// Decode appends the decompressed form of src to dst
	Decode(dst, src []byte) ([]byte, error)
}

// Codec IDs. They are persisted and must not change.
const (
	IDNone   byte = 0
	IDSnappy byte = 1
	IDLZ4    byte = 2
	IDZstd   byte = 3
)

var (
	None   Codec = noneCodec{}
	Snappy Codec = snappyCodec{}
	LZ4    Codec = lz4Codec{}
	Zstd   Codec = &zstdCodec{}
)

var registry = []Codec{None, Snappy, LZ4, Zstd}

// ByName returns the codec registered under name.
func ByName(name string) (Codec, error) {
	for _, c := range registry {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("codec: unknown codec %q", name)
}

// ByID returns the codec for a stored tag.
func ByID(id byte) (Codec, error) {
	for _, c := range registry {
		if c.ID() == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("codec: unknown codec id %d", id)
}

type noneCodec struct{}

func (noneCodec) Name() string { return "none" }
func (noneCodec) ID() byte     { return IDNone }

func (noneCodec) Encode(dst, src []byte) ([]byte, error) {
	return append(dst, src...), nil
}

func (noneCodec) Decode(dst, src []byte) ([]byte, error) {
	return append(dst, src...), nil
}

type snappyCodec struct{}

func (snappyCodec) Name() string { return "snappy" }
func (snappyCodec) ID() byte     { return IDSnappy }

func (snappyCodec) Encode(dst, src []byte) ([]byte, error) {
	return append(dst, snappy.Encode(nil, src)...), nil
}

func (snappyCodec) Decode(dst, src []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, src)
	if err != nil {
		return nil, fmt.Errorf("codec: snappy: %w", err)
	}
	return append(dst, out...), nil
}

type lz4Codec struct{}

func (lz4Codec) Name() string { return "lz4" }
func (lz4Codec) ID() byte     { return IDLZ4 }

func (lz4Codec) Encode(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	w := lz4.NewWriter(buf)
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("codec: lz4: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("codec: lz4: %w", err)
	}
	return buf.Bytes(), nil
}

func (lz4Codec) Decode(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	if _, err := io.Copy(buf, lz4.NewReader(bytes.NewReader(src))); err != nil {
		return nil, fmt.Errorf("codec: lz4: %w", err)
	}
	return buf.Bytes(), nil
}

// zstdCodec shares one encoder and decoder; EncodeAll and DecodeAll are
// safe for concurrent use.
type zstdCodec struct {
	once sync.Once
	enc  *zstd.Encoder
	dec  *zstd.Decoder
	err  error
}

func (*zstdCodec) Name() string { return "zstd" }
func (*zstdCodec) ID() byte     { return IDZstd }

func (z *zstdCodec) init() error {
	z.once.Do(func() {
		z.enc, z.err = zstd.NewWriter(nil)
		if z.err != nil {
			return
		}
		z.dec, z.err = zstd.NewReader(nil)
	})
	return z.err
}

func (z *zstdCodec) Encode(dst, src []byte) ([]byte, error) {
	if err := z.init(); err != nil {
		return nil, fmt.Errorf("codec: zstd: %w", err)
	}
	return z.enc.EncodeAll(src, dst), nil
}

func (z *zstdCodec) Decode(dst, src []byte) ([]byte, error) {
	if err := z.init(); err != nil {
		return nil, fmt.Errorf("codec: zstd: %w", err)
	}
	out, err := z.dec.DecodeAll(src, dst)
	if err != nil {
		return nil, fmt.Errorf("codec: zstd: %w", err)
	}
	return out, nil
}
