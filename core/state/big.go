package state

import "math/big"

func bigZero() *big.Int { return big.NewInt(0) }

// bigToBytes stores arbitrary-precision balances as their minimal big-endian
// form. Zero and nil both encode as an empty slice.
func bigToBytes(v *big.Int) []byte {
	if v == nil || v.Sign() == 0 {
		return []byte{}
	}
	return v.Bytes()
}

func bytesToBig(b []byte) *big.Int {
	if len(b) == 0 {
		return big.NewInt(0)
	}
	return new(big.Int).SetBytes(b)
}
