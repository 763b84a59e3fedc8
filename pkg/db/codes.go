package db

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const codeSuffixCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewCode generates a human-readable entity code of the form
// PREFIX-<millis base36>-<random6>, uppercased. The timestamp component keeps
// codes roughly monotonic; the random suffix guards against same-millisecond
// collisions. Uniqueness is ultimately enforced by the database constraint.
func NewCode(prefix string) string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	return fmt.Sprintf("%s-%s-%s", strings.ToUpper(prefix), ts, randomSuffix(6))
}

func randomSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to time bits
		nano := time.Now().UnixNano()
		for i := range buf {
			buf[i] = byte(nano >> (uint(i) * 8))
		}
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = codeSuffixCharset[int(b)%len(codeSuffixCharset)]
	}
	return string(out)
}
