package tickets

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// codeAlphabet deliberately omits easily confused characters (0/O, 1/I/l)
// so door staff can read codes back over the phone.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 8

// NewTicketID returns the opaque globally-unique ticket identifier.
func NewTicketID() string {
	return uuid.NewString()
}

// NewTicketCode returns a short human-presentable admission code. With a
// 32-character alphabet and 8 positions the collision probability is
// negligible; uniqueness is not database-enforced.
func NewTicketCode() string {
	code := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand read failure is unrecoverable for credential
			// generation.
			panic(err)
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code)
}
