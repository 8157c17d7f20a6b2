package ledger

import (
	"encoding/hex"
	"fmt"

	binarycodec "github.com/Peersyst/xrpl-go/binary-codec"
	"github.com/Peersyst/xrpl-go/keypairs"
)

// signTransaction derives the wallet keypair from the seed, signs the
// transaction locally and returns the encoded blob for submission. The seed
// and the derived private key never leave the process; only the signed blob
// goes over the wire.
func signTransaction(tx map[string]interface{}, seed string) (string, error) {
	private, public, err := keypairs.DeriveKeypair(seed, false)
	if err != nil {
		return "", fmt.Errorf("failed to derive keypair: %w", err)
	}

	tx["SigningPubKey"] = public

	encoded, err := binarycodec.EncodeForSigning(tx)
	if err != nil {
		return "", fmt.Errorf("failed to encode transaction for signing: %w", err)
	}
	payload, err := hex.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("malformed signing payload: %w", err)
	}

	signature, err := keypairs.Sign(string(payload), private)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}
	tx["TxnSignature"] = signature

	blob, err := binarycodec.Encode(tx)
	if err != nil {
		return "", fmt.Errorf("failed to encode signed transaction: %w", err)
	}
	return blob, nil
}
