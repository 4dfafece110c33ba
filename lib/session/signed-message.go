package session

import (
	"bytes"
	"compress/zlib"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	minTokenLength  = 8
	// Fits a cookie value with room for attributes.
	maxTokenLength  = 3072
	signatureHexLen = sha256.Size * 2
)

var (
	ErrBadSignature = errors.New("invalid session signature")
	ErrExpired      = errors.New("session expired")
)

type tokenTooLargeError int

func (e tokenTooLargeError) Error() string {
	return fmt.Sprintf("session token is too large: %d", int(e))
}

type tokenTooSmallError int

func (e tokenTooSmallError) Error() string {
	return fmt.Sprintf("session token is too small: %d", int(e))
}

type Claims struct {
	UserID    string    `json:"uid"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// Codec signs session claims. The token is base64url of zlib(json) followed by the hex HMAC of it.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(secret []byte, ttl time.Duration) *Codec {
	return &Codec{secret: secret, ttl: ttl, now: time.Now}
}

func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue fills in timestamps and encodes the claims.
func (c *Codec) Issue(userID, role string) (string, Claims, error) {
	now := c.now().UTC()
	claims := Claims{UserID: userID, Role: role, IssuedAt: now, ExpiresAt: now.Add(c.ttl)}
	token, err := c.Encode(claims)
	return token, claims, err
}

func (c *Codec) Encode(claims Claims) (string, error) {
	var wr strings.Builder
	enc := base64.NewEncoder(base64.URLEncoding, &wr)
	if err := c.signedCompressedJSONEncoder(claims)(enc); err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	output := wr.String()
	if len(output) > maxTokenLength {
		return "", tokenTooLargeError(len(output))
	}
	return output, nil
}

func (c *Codec) Decode(token string) (Claims, error) {
	var claims Claims
	if len(token) < minTokenLength {
		return claims, tokenTooSmallError(len(token))
	}
	if len(token) > maxTokenLength {
		return claims, tokenTooLargeError(len(token))
	}
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return claims, fmt.Errorf("decode session: %w", err)
	}
	if len(data) <= signatureHexLen {
		return claims, tokenTooSmallError(len(token))
	}
	compressed, sig := data[:len(data)-signatureHexLen], data[len(data)-signatureHexLen:]
	if !c.verify(compressed, sig) {
		return claims, ErrBadSignature
	}
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return claims, fmt.Errorf("decode session: %w", err)
	}
	defer zr.Close()
	if err := json.NewDecoder(zr).Decode(&claims); err != nil {
		return claims, fmt.Errorf("decode session: %w", err)
	}
	if !c.now().Before(claims.ExpiresAt) {
		return claims, ErrExpired
	}
	return claims, nil
}

func (c *Codec) signedCompressedJSONEncoder(msg any) func(wr io.Writer) error {
	return func(wr io.Writer) error {
		mac := hmac.New(sha256.New, c.secret)
		// compressed json goes both to the output and to the mac
		zw := zlib.NewWriter(io.MultiWriter(wr, mac))
		if err := json.NewEncoder(zw).Encode(msg); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
		_, err := wr.Write([]byte(hex.EncodeToString(mac.Sum(nil))))
		return err
	}
}

func (c *Codec) verify(msg, sig []byte) bool {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(msg)
	return hmac.Equal(sig, []byte(hex.EncodeToString(mac.Sum(nil))))
}
