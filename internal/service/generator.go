package service

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// codeAlphabet is the 62-character set short codes are drawn from.
const codeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// CodeGenerator produces a random code of the given length.
type CodeGenerator func(length int) (string, error)

// GenerateCode draws each character independently and uniformly from the
// alphanumeric alphabet using a cryptographically secure source.
func GenerateCode(length int) (string, error) {
	return gonanoid.Generate(codeAlphabet, length)
}
