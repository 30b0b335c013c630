package reconcile

import (
	"crypto/rand"
	"fmt"
	"time"
)

const (
	base36Alphabet    = "0123456789abcdefghijklmnopqrstuvwxyz"
	orderSuffixLength = 9
)

// newCustomOrderID builds a public order identifier of the form
// <prefix>_<unix millis>_<random base36 suffix>. The random suffix keeps
// ids unique when many orders are created in the same millisecond.
func newCustomOrderID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), randomBase36(orderSuffixLength))
}

func randomBase36(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken
		panic(fmt.Sprintf("reading random bytes: %v", err))
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = base36Alphabet[int(b)%len(base36Alphabet)]
	}
	return string(out)
}
