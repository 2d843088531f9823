// Package harden re-encrypts a finished document with a lock-down policy.
package harden

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// pdfcpu would otherwise create a configuration directory in the
	// user's home on first use.
	api.DisableConfigDir()
}

// Policy controls the encryption applied to a document.
type Policy struct {
	// OwnerPassword is generated when empty.
	OwnerPassword string
	// KeyLength is the AES key length in bits, 128 or 256. Defaults to 256.
	KeyLength int
	// Permissions granted to readers. Defaults to none.
	Permissions model.PermissionFlags
}

// Default is the lock-down policy: no user password, a random owner
// password and no permissions.
var Default = Policy{KeyLength: 256, Permissions: model.PermissionsNone}

// Encrypt returns input encrypted with policy. The document opens without a
// password but printing, copying and modification are denied.
func Encrypt(input []byte, policy Policy) ([]byte, error) {
	ownerPW := policy.OwnerPassword
	if ownerPW == "" {
		var err error
		if ownerPW, err = randomPassword(); err != nil {
			return nil, fmt.Errorf("failed to generate owner password: %w", err)
		}
	}

	keyLength := policy.KeyLength
	if keyLength == 0 {
		keyLength = 256
	}
	if keyLength != 128 && keyLength != 256 {
		return nil, fmt.Errorf("unsupported AES key length: %d", keyLength)
	}

	conf := model.NewAESConfiguration("", ownerPW, keyLength)
	conf.Permissions = policy.Permissions
	if conf.Permissions == 0 {
		conf.Permissions = model.PermissionsNone
	}

	var out bytes.Buffer
	if err := api.Encrypt(bytes.NewReader(input), &out, conf); err != nil {
		return nil, fmt.Errorf("failed to encrypt document: %w", err)
	}
	return out.Bytes(), nil
}

func randomPassword() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
