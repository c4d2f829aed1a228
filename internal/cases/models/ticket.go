package models

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

const (
	ticketPrefix    = "TIKET-"
	ticketSuffixLen = 9
	ticketAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var ticketPattern = regexp.MustCompile(`^TIKET-[0-9]{4}-[A-Z0-9]{9}$`)

// TicketGenerator produces candidate ticket codes. Uniqueness is enforced by
// the store; callers retry on collision.
type TicketGenerator func(now time.Time) (string, error)

// NewTicketGenerator reads randomness from src and takes the ticket year in
// loc. A nil src uses crypto/rand; a nil loc uses UTC.
func NewTicketGenerator(src io.Reader, loc *time.Location) TicketGenerator {
	if src == nil {
		src = rand.Reader
	}
	if loc == nil {
		loc = time.UTC
	}
	return func(now time.Time) (string, error) {
		return GenerateTicket(now.In(loc), src)
	}
}

// GenerateTicket builds TIKET-<year>-<9 upper alphanumerics> using the year
// of now as given.
func GenerateTicket(now time.Time, src io.Reader) (string, error) {
	suffix, err := randomSuffix(src)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d-%s", ticketPrefix, now.Year(), suffix), nil
}

// randomSuffix rejects bytes that would bias the alphabet.
func randomSuffix(src io.Reader) (string, error) {
	const limit = 256 - 256%len(ticketAlphabet)
	out := make([]byte, 0, ticketSuffixLen)
	buf := make([]byte, ticketSuffixLen*2)
	for len(out) < ticketSuffixLen {
		if _, err := io.ReadFull(src, buf); err != nil {
			return "", fmt.Errorf("read ticket randomness: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, ticketAlphabet[int(b)%len(ticketAlphabet)])
			if len(out) == ticketSuffixLen {
				break
			}
		}
	}
	return string(out), nil
}

// NormalizeTicket trims and upper-cases a user-typed code.
func NormalizeTicket(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsWellFormedTicket checks an already normalized code.
func IsWellFormedTicket(code string) bool {
	return ticketPattern.MatchString(code)
}
