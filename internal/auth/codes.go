package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// GenCode returns a 6-digit one-time code.
func GenCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand failing means the platform RNG is broken; there is
		// no safe degraded mode for auth codes.
		panic(fmt.Sprintf("rng unavailable: %v", err))
	}
	return fmt.Sprintf("%06d", n.Int64()+100000)
}

const tacticalAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenTacticalID returns a short public identifier like RSA-X4K2P9.
func GenTacticalID() string {
	var b strings.Builder
	b.WriteString("RSA-")
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tacticalAlphabet))))
		if err != nil {
			panic(fmt.Sprintf("rng unavailable: %v", err))
		}
		b.WriteByte(tacticalAlphabet[n.Int64()])
	}
	return b.String()
}
