// Package credentials generates the random username/password pair handed
// to a student when a lab is provisioned. The username doubles as the
// lab's external handle, so it must be unique against concurrently
// generated names with overwhelming probability.
package credentials

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// UsernamePrefix prefixes every generated student username
	UsernamePrefix = "student-"
	// usernameEntropy is the number of UUID hex characters appended to
	// the prefix (64 bits of randomness)
	usernameEntropy = 16

	// PasswordLength is the length of generated passwords
	PasswordLength = 16
)

// Character classes the password policy requires at least one of each from
const (
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*-_=+"
)

// Generate produces a fresh username/password pair
func Generate() (username, password string, err error) {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	username = UsernamePrefix + raw[:usernameEntropy]

	password, err = generatePassword(PasswordLength)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate password: %w", err)
	}

	return username, password, nil
}

// generatePassword builds a password of the given length containing at
// least one character from every class, then shuffles it so the class
// positions are not predictable.
func generatePassword(length int) (string, error) {
	classes := []string{lowerChars, upperChars, digitChars, symbolChars}
	if length < len(classes) {
		return "", fmt.Errorf("password length %d below policy minimum %d", length, len(classes))
	}

	all := lowerChars + upperChars + digitChars + symbolChars
	chars := make([]byte, 0, length)

	for _, class := range classes {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}
	for len(chars) < length {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	// Fisher-Yates with crypto/rand indices
	for i := len(chars) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return "", err
		}
		chars[i], chars[j] = chars[j], chars[i]
	}

	return string(chars), nil
}

func randomChar(set string) (byte, error) {
	idx, err := randomIndex(len(set))
	if err != nil {
		return 0, err
	}
	return set[idx], nil
}

func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
