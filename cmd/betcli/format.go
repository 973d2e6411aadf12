package main

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// formatUnits renders a raw token amount with the token's decimal
// precision, up to 6 fractional digits.
func formatUnits(x *big.Int, decimals uint8) string {
	if x == nil {
		return "0"
	}
	exp := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	r := new(big.Rat).SetFrac(new(big.Int).Set(x), exp)
	places := int(decimals)
	if places > 6 {
		places = 6
	}
	out := r.FloatString(places)
	if strings.Contains(out, ".") {
		out = strings.TrimRight(out, "0")
		out = strings.TrimRight(out, ".")
	}
	return out
}

// parseUnits converts a human amount ("1.5") into the token's smallest
// unit. Fails when the input carries more precision than the token has.
func parseUnits(s string, decimals uint8) (*big.Int, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return nil, fmt.Errorf("not a number")
	}
	if r.Sign() < 0 {
		return nil, fmt.Errorf("negative amount")
	}
	exp := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	r.Mul(r, new(big.Rat).SetInt(exp))
	if !r.IsInt() {
		return nil, fmt.Errorf("more than %d decimal places", decimals)
	}
	return new(big.Int).Set(r.Num()), nil
}

func trimAddress(a common.Address) string {
	h := a.Hex()
	return h[:6] + "…" + h[len(h)-4:]
}

func trimHash(h common.Hash) string {
	s := h.Hex()
	return s[:6] + "…" + s[len(s)-4:]
}
