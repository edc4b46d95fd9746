package fetcher_test

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/rockaxx/freegames/internal/fetcher"
)

func TestDecompress_Deflate(t *testing.T) {
	t.Parallel()

	var wrapped bytes.Buffer
	zw := zlib.NewWriter(&wrapped)
	_, err := zw.Write([]byte(testPage))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var raw bytes.Buffer
	fw, err := flate.NewWriter(&raw, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = fw.Write([]byte(testPage))
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	assert.Equal(t, testPage, string(fetcher.Decompress(wrapped.Bytes(), "deflate")))
	assert.Equal(t, testPage, string(fetcher.Decompress(raw.Bytes(), "deflate")))
}

func TestDecompress_PassThrough(t *testing.T) {
	t.Parallel()

	body := []byte(testPage)
	assert.Equal(t, body, fetcher.Decompress(body, ""))
	assert.Equal(t, body, fetcher.Decompress(body, "identity"))
	assert.Equal(t, body, fetcher.Decompress(body, "zstd"))
}

func TestDecompress_Stacked(t *testing.T) {
	t.Parallel()

	inner := gzipped(t, testPage)
	outer := gzipped(t, string(inner))
	assert.Equal(t, testPage, string(fetcher.Decompress(outer, "gzip, gzip")))
}

func TestCharsetFromContentType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "windows-1251", fetcher.CharsetFromContentType("text/html; charset=Windows-1251"))
	assert.Equal(t, "utf-8", fetcher.CharsetFromContentType(`text/html; charset="utf-8"`))
	assert.Empty(t, fetcher.CharsetFromContentType("text/html"))
}

func TestDecodeText(t *testing.T) {
	t.Parallel()

	cyr, err := charmap.Windows1251.NewEncoder().String("обновлен до версии 1.4")
	require.NoError(t, err)

	assert.Equal(t, "обновлен до версии 1.4", fetcher.DecodeText([]byte(cyr), "", "win1251"))
	assert.Equal(t, "обновлен до версии 1.4", fetcher.DecodeText([]byte(cyr), "text/html; charset=cp1251", ""))
	assert.Equal(t, "plain", fetcher.DecodeText([]byte("plain"), "", "no-such-charset"))
	assert.Equal(t, "a�b", fetcher.DecodeText([]byte{'a', 0xff, 'b'}, "", ""))
}

func TestIsChallenge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		body string
		want bool
	}{
		{body: "<title>Just a moment...</title>", want: true},
		{body: "Checking your browser before accessing", want: true},
		{body: `<div id="CF-Browser-Verification">`, want: true},
		{body: "<title>just a moment</title>", want: false},
		{body: testPage, want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, fetcher.IsChallenge(tt.body), tt.body)
	}
}
