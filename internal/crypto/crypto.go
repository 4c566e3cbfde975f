/* Copyright (c) 2025 timereport-backend authors
 * SPDX-License-Identifier: BSD-3-Clause */

// Package crypto encrypts board API credentials at rest with AES-256-CBC.
// The wire format is "ivHex:ciphertextHex"; the key is derived from the
// configured secret as the first 32 bytes of base64(sha256(secret)), which
// existing stored tokens depend on.
package crypto

import (
    "bytes"
    "crypto/aes"
    "crypto/cipher"
    "crypto/rand"
    "crypto/sha256"
    "encoding/base64"
    "encoding/hex"
    "errors"
    "fmt"
    "strings"
)

type Codec struct {
    key []byte
}

func NewCodec(secret string) (*Codec, error) {
    if secret == "" { return nil, errors.New("crypto: empty secret") }
    sum := sha256.Sum256([]byte(secret))
    b64 := base64.StdEncoding.EncodeToString(sum[:])
    return &Codec{key: []byte(b64)[:32]}, nil
}

func (c *Codec) Encrypt(plaintext string) (string, error) {
    block, err := aes.NewCipher(c.key)
    if err != nil { return "", err }
    iv := make([]byte, aes.BlockSize)
    if _, err := rand.Read(iv); err != nil { return "", err }
    padded := pad([]byte(plaintext), aes.BlockSize)
    ct := make([]byte, len(padded))
    cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)
    return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ct), nil
}

func (c *Codec) Decrypt(encrypted string) (string, error) {
    parts := strings.SplitN(encrypted, ":", 2)
    if len(parts) != 2 { return "", errors.New("crypto: malformed ciphertext") }
    iv, err := hex.DecodeString(parts[0])
    if err != nil { return "", fmt.Errorf("crypto: bad iv: %w", err) }
    ct, err := hex.DecodeString(parts[1])
    if err != nil { return "", fmt.Errorf("crypto: bad ciphertext: %w", err) }
    if len(iv) != aes.BlockSize || len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
        return "", errors.New("crypto: bad ciphertext length")
    }
    block, err := aes.NewCipher(c.key)
    if err != nil { return "", err }
    pt := make([]byte, len(ct))
    cipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ct)
    pt, err = unpad(pt, aes.BlockSize)
    if err != nil { return "", err }
    return string(pt), nil
}

func pad(b []byte, size int) []byte {
    n := size - len(b)%size
    return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte, size int) ([]byte, error) {
    if len(b) == 0 || len(b)%size != 0 { return nil, errors.New("crypto: bad padding") }
    n := int(b[len(b)-1])
    if n == 0 || n > size { return nil, errors.New("crypto: bad padding") }
    for _, v := range b[len(b)-n:] {
        if int(v) != n { return nil, errors.New("crypto: bad padding") }
    }
    return b[:len(b)-n], nil
}
