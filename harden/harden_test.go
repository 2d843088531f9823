package harden

import (
	"bytes"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitorus/pdfmark/internal/testpdf"
)

func TestEncrypt(t *testing.T) {
	input := testpdf.Simple()

	out, err := Encrypt(input, Default)
	require.NoError(t, err)
	assert.Contains(t, string(out), "/Encrypt")

	// No user password: the document still opens.
	n, err := api.PageCount(bytes.NewReader(out), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEncryptRandomOwnerPassword(t *testing.T) {
	a, err := randomPassword()
	require.NoError(t, err)
	b, err := randomPassword()
	require.NoError(t, err)
	assert.Len(t, a, 48)
	assert.NotEqual(t, a, b)
}

func TestEncryptUnsupportedKeyLength(t *testing.T) {
	_, err := Encrypt(testpdf.Simple(), Policy{KeyLength: 40})
	assert.Error(t, err)
}

func TestEncryptMalformed(t *testing.T) {
	_, err := Encrypt(testpdf.Garbage(), Default)
	assert.Error(t, err)
}
