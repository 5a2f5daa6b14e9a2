package test

import (
	"math/rand/v2"
	"strings"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomOrderID returns an id shaped like the ones the order service issues, e.g. "ord_k3v9x2m1".
func RandomOrderID() string {
	return "ord_" + randomString(8)
}

// RandomTxnID returns a gateway transaction id of the form "ORD-XXXXXXXXXX".
func RandomTxnID() string {
	return "ORD-" + strings.ToUpper(randomString(10))
}

func randomString(n int) string {
	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteByte(idAlphabet[rand.IntN(len(idAlphabet))])
	}
	return b.String()
}
