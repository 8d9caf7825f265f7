// Package secret generates random passwords and tokens from crypto/rand.
package secret

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
)

const (
	// PasswordLen is the length of generated account passwords.
	PasswordLen = 20
	// TokenBytes is the number of random bytes behind a token, 256 bits.
	TokenBytes = 32
)

const (
	lower  = "abcdefghijkmnopqrstuvwxyz"
	upper  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digits = "23456789"
)

// ErrTooShort is returned when a password cannot hold one character of every class.
var ErrTooShort = errors.New("password length too short")

// Password returns a random password of length characters holding at least one
// lower case letter, upper case letter and digit. Look-alike characters are
// left out so the password can be read from a log line.
func Password(length int) (string, error) {
	classes := []string{lower, upper, digits}
	if length < len(classes) {
		return "", ErrTooShort
	}

	all := lower + upper + digits
	out := make([]byte, length)

	for i := range out {
		set := all
		if i < len(classes) {
			set = classes[i]
		}

		c, err := pick(set)
		if err != nil {
			return "", err
		}

		out[i] = c
	}

	// move the class characters away from the front
	for i := len(out) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}

		out[i], out[j.Int64()] = out[j.Int64()], out[i]
	}

	return string(out), nil
}

// Token returns TokenBytes random bytes hex encoded.
func Token() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

func pick(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}

	return set[n.Int64()], nil
}
