package testutil

import (
	"crypto/rand"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// RandomAddress generates a valid bech32 identity with the given prefix.
func RandomAddress(prefix string) (string, error) {
	bz := make([]byte, 20)
	if _, err := rand.Read(bz); err != nil {
		return "", err
	}

	return sdk.Bech32ifyAddressBytes(prefix, bz)
}
