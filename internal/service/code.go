package service

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateCode builds a coupon code of the form PREFIX-NNNNTTTT: the
// partner's slug uppercased and truncated to four characters, four random
// base36 characters, and the last four base36 digits of the current unix
// millisecond timestamp. Codes are display tokens, not secrets; collisions
// beyond the per-(email, offer) reuse path are treated as negligible.
func GenerateCode(slug string, now time.Time) string {
	prefix := strings.ToUpper(slug)
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}

	var random [4]byte
	for i := range random {
		random[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}

	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	if len(ts) > 4 {
		ts = ts[len(ts)-4:]
	}

	return prefix + "-" + string(random[:]) + ts
}
