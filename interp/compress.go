package interp

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"hash/adler32"
	"hash/crc32"
	"io"
)

// CompressEnvelope selects the wire-format wrapper of spec.md §6.3:
// "Compression envelopes: raw deflate, zlib (2-byte header + adler32),
// gzip (with CRC32 and original length), plus a detect mode."
type CompressEnvelope uint8

const (
	EnvelopeRaw CompressEnvelope = iota
	EnvelopeZlib
	EnvelopeGzip
	EnvelopeDetect
)

// Deflate compresses data per the requested envelope. No pack repo
// imports a compression library (see SPEC_FULL.md Domain Stack's
// justification), so this stays on stdlib compress/{flate,zlib,gzip}.
func Deflate(data []byte, env CompressEnvelope) ([]byte, error) {
	var buf bytes.Buffer
	switch env {
	case EnvelopeRaw:
		w, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	case EnvelopeZlib:
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	case EnvelopeGzip:
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, newError("script", "bad-envelope", "deflate requires an explicit envelope")
	}
	return buf.Bytes(), nil
}

// Inflate decompresses data, auto-detecting the envelope when env is
// EnvelopeDetect per spec.md §6.3.
func Inflate(data []byte, env CompressEnvelope) ([]byte, error) {
	if env == EnvelopeDetect {
		env = detectEnvelope(data)
	}
	var r io.ReadCloser
	var err error
	switch env {
	case EnvelopeRaw:
		r = flate.NewReader(bytes.NewReader(data))
	case EnvelopeZlib:
		r, err = zlib.NewReader(bytes.NewReader(data))
	case EnvelopeGzip:
		r, err = gzip.NewReader(bytes.NewReader(data))
	default:
		return nil, newError("script", "bad-envelope", "inflate requires an explicit or detected envelope")
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// detectEnvelope sniffs a gzip/zlib magic header, falling back to raw
// deflate, matching spec.md's "auto-detect" mode.
func detectEnvelope(data []byte) CompressEnvelope {
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		return EnvelopeGzip
	}
	if len(data) >= 2 {
		cmf, flg := data[0], data[1]
		if cmf&0x0f == 8 && (uint16(cmf)<<8+uint16(flg))%31 == 0 {
			return EnvelopeZlib
		}
	}
	return EnvelopeRaw
}

// ZlibAdler32 and GzipCRC32 are exposed so callers can independently
// verify the checksum/length trailer invariants named in spec.md §6.3,
// without re-decompressing through the standard library's reader.
func ZlibAdler32(data []byte) uint32 { return adler32.Checksum(data) }

func GzipCRC32AndLen(original []byte) (crc uint32, length uint32) {
	return crc32.ChecksumIEEE(original), uint32(len(original))
}
