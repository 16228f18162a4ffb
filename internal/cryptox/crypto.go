// Package cryptox implements the client-side cryptography used by SecurePM:
// argon2id master-key derivation, the login verifier, and AES-GCM sealing of
// entry payloads. The sync engine itself never touches plaintext.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"

	"golang.org/x/crypto/argon2"
)

// MakeVerifier derives the value stored server-side to check a login
// attempt. The server never sees the password or the master key, only this
// hash of the key.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// DeriveMasterKey stretches the user password into a 32-byte AES key with
// argon2id (t=1, m=64MiB, p=4).
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// EncryptEntry serializes the given value to JSON and encrypts it with
// AES-GCM under key. A fresh random 12-byte nonce is generated per call and
// returned alongside the ciphertext.
//
// The key must be a valid AES key length; DeriveMasterKey always produces a
// 32-byte key for AES-256.
func EncryptEntry(entry any, key []byte) (ciphertext, nonce []byte, err error) {
	plaintext, err := json.Marshal(entry)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, 12)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)

	return ciphertext, nonce, nil
}

// DecryptEntry reverses EncryptEntry: it decrypts ciphertext with the same
// key and nonce and unmarshals the plaintext JSON into v. Tampered or
// wrong-key ciphertexts fail GCM authentication and return an error.
func DecryptEntry(ciphertext, nonce, key []byte, v any) error {
	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return err
	}

	return json.Unmarshal(plaintext, v)
}
