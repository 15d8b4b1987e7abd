package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/skip2/go-qrcode"

	"icpep-backend/internal/models"
)

// PassGenerator seals RSVP passes with AES-GCM and renders them as QR codes.
type PassGenerator struct {
	aead cipher.AEAD
	size int
}

func NewPassGenerator(secret string) (*PassGenerator, error) {
	key := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &PassGenerator{aead: aead, size: 256}, nil
}

func (g *PassGenerator) Seal(pass models.RSVPPass) (string, error) {
	data, err := json.Marshal(pass)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, g.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := g.aead.Seal(nonce, nonce, data, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open rejects tokens that were tampered with or sealed under another secret.
func (g *PassGenerator) Open(token string) (models.RSVPPass, error) {
	var pass models.RSVPPass
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) < g.aead.NonceSize() {
		return pass, fmt.Errorf("%w: malformed pass", models.ErrInvalidInput)
	}
	nonce, ciphertext := raw[:g.aead.NonceSize()], raw[g.aead.NonceSize():]
	data, err := g.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return pass, fmt.Errorf("%w: pass signature mismatch", models.ErrInvalidInput)
	}
	if err := json.Unmarshal(data, &pass); err != nil {
		return pass, fmt.Errorf("%w: malformed pass", models.ErrInvalidInput)
	}
	return pass, nil
}

// Generate returns the sealed token and a PNG QR code encoding it.
func (g *PassGenerator) Generate(pass models.RSVPPass) (string, []byte, error) {
	token, err := g.Seal(pass)
	if err != nil {
		return "", nil, err
	}
	png, err := qrcode.Encode(token, qrcode.Medium, g.size)
	if err != nil {
		return "", nil, err
	}
	return token, png, nil
}
