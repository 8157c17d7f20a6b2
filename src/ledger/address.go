package ledger

import (
	"github.com/mr-tron/base58"
)

// The XRPL base58 dictionary (note the leading 'r').
const rippleAlphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

var rippleB58 = base58.NewAlphabet(rippleAlphabet)

// IsValidAddress checks shape only: alphabet membership, length, and the
// 25-byte decoded form of a classic address. It does not hit the network.
func IsValidAddress(address string) bool {
	if len(address) < 25 || len(address) > 35 {
		return false
	}

	decoded, err := base58.DecodeAlphabet(address, rippleB58)
	if err != nil {
		return false
	}
	return len(decoded) == 25
}
