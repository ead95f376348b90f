package service

import (
	"hash/fnv"
	"strings"
	"time"
	"unicode"
)

const seedBound = 1_000_000

// DeriveSeed turns the interview answers into a stable number.
// Equal answers on the same calendar day always give the same seed.
func DeriveSeed(answers []string, at time.Time) int64 {
	joined := strings.ToLower(strings.Join(answers, "\n"))

	h := fnv.New64a()
	h.Write([]byte(joined))
	sum := h.Sum64()

	var vowels, consonants, digits uint64
	for _, r := range joined {
		switch {
		case strings.ContainsRune("aeiou", r):
			vowels++
		case unicode.IsLetter(r):
			consonants++
		case unicode.IsDigit(r):
			digits++
		}
	}

	sum ^= uint64(len(joined)) << 7
	sum ^= vowels << 13
	sum ^= consonants << 19
	sum ^= digits << 3
	sum += uint64(at.YearDay()) * 2654435761

	return int64(sum % seedBound)
}
