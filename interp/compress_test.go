package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeflateInflateRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeated: " +
		"the quick brown fox jumps over the lazy dog")

	for _, env := range []CompressEnvelope{EnvelopeRaw, EnvelopeZlib, EnvelopeGzip} {
		packed, err := Deflate(payload, env)
		require.NoError(t, err)
		assert.NotEmpty(t, packed)

		back, err := Inflate(packed, env)
		require.NoError(t, err)
		assert.Equal(t, payload, back)

		detected, err := Inflate(packed, EnvelopeDetect)
		require.NoError(t, err)
		assert.Equal(t, payload, detected)
	}
}

func TestDeflateRejectsDetectEnvelope(t *testing.T) {
	_, err := Deflate([]byte("x"), EnvelopeDetect)
	assert.Error(t, err)
}

func TestGzipCRC32AndLen(t *testing.T) {
	data := []byte("abc")
	crc, n := GzipCRC32AndLen(data)
	assert.Equal(t, uint32(3), n)
	assert.NotZero(t, crc)
}
