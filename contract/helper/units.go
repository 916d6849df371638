package helper

import (
	"math/big"
	"strconv"

	"github.com/pkg/errors"
)

const (
	secondsPerHour = 60 * 60
	secondsPerDay  = 24 * secondsPerHour
)

// WeiPerEther is the number of smallest units in one whole unit (10^18).
var WeiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// WeiToEther converts a smallest-unit amount into whole units.
func WeiToEther(wei *big.Int) *big.Rat {
	if wei == nil {
		return new(big.Rat)
	}
	return new(big.Rat).SetFrac(wei, WeiPerEther)
}

// FormatEther renders wei as whole units with four decimals.
func FormatEther(wei *big.Int) string {
	return WeiToEther(wei).FloatString(4)
}

// EtherToWei parses a decimal whole-unit amount such as "0.01".
func EtherToWei(ether string) (*big.Int, error) {
	r, ok := new(big.Rat).SetString(ether)
	if !ok {
		return nil, errors.Errorf("invalid amount %q", ether)
	}

	r.Mul(r, new(big.Rat).SetInt(WeiPerEther))
	if !r.IsInt() {
		return nil, errors.Errorf("amount %q has more than 18 decimals", ether)
	}

	return new(big.Int).Set(r.Num()), nil
}

func MustEtherToWei(ether string) *big.Int {
	wei, err := EtherToWei(ether)
	if err != nil {
		panic(err)
	}
	return wei
}

func SecondsToHours(seconds *big.Int) float64 {
	return ratio(seconds, secondsPerHour)
}

func SecondsToDays(seconds *big.Int) float64 {
	return ratio(seconds, secondsPerDay)
}

// FormatFloat prints the shortest exact representation (24, 1.5, 0.25).
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func ratio(seconds *big.Int, unit int64) float64 {
	if seconds == nil {
		return 0
	}
	f, _ := new(big.Rat).SetFrac(seconds, big.NewInt(unit)).Float64()
	return f
}
