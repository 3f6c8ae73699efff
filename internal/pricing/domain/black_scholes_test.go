package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlackScholes_ReferenceCase(t *testing.T) {
	in := BlackScholesInput{S: 100, K: 100, T: 1, R: 0.05, V: 0.2}

	call, err := CalculateBlackScholes(OptionTypeCall, in)
	require.NoError(t, err)
	put, err := CalculateBlackScholes(OptionTypePut, in)
	require.NoError(t, err)

	assert.InDelta(t, 10.450583572185565, call.Price, 1e-9)
	assert.InDelta(t, 5.573526022256971, put.Price, 1e-9)
	assert.InDelta(t, 100-100*math.Exp(-0.05), call.Price-put.Price, 1e-9)
}

func TestBlackScholes_Greeks(t *testing.T) {
	in := BlackScholesInput{S: 100, K: 100, T: 1, R: 0.05, V: 0.2}

	call, err := CalculateBlackScholes(OptionTypeCall, in)
	require.NoError(t, err)
	put, err := CalculateBlackScholes(OptionTypePut, in)
	require.NoError(t, err)

	assert.InDelta(t, 0.636830651175619, call.Greeks.Delta, 1e-9)
	assert.InDelta(t, call.Greeks.Delta-1, put.Greeks.Delta, 1e-12)
	assert.InDelta(t, call.Greeks.Gamma, put.Greeks.Gamma, 1e-15)
	assert.InDelta(t, call.Greeks.Vega, put.Greeks.Vega, 1e-15)
	assert.InDelta(t, 0.018762017345847, call.Greeks.Gamma, 1e-9)
	assert.InDelta(t, 0.375240346916938, call.Greeks.Vega, 1e-9)
	assert.Less(t, call.Greeks.Theta, 0.0)
	assert.Greater(t, call.Greeks.Rho, 0.0)
	assert.Less(t, put.Greeks.Rho, 0.0)
}

func TestBlackScholes_Degenerate(t *testing.T) {
	_, err := CalculateBlackScholes(OptionTypeCall, BlackScholesInput{S: 100, K: 100, T: 1, R: 0.05, V: 0})
	assert.ErrorIs(t, err, ErrNumericDegenerate)

	_, err = CalculateBlackScholes(OptionTypePut, BlackScholesInput{S: 100, K: 100, T: 0, R: 0.05, V: 0.2})
	assert.ErrorIs(t, err, ErrNumericDegenerate)

	_, err = CalculateBlackScholes(OptionTypeCall, BlackScholesInput{S: 0, K: 100, T: 1, R: 0.05, V: 0.2})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = CalculateBlackScholes("SWAP", BlackScholesInput{S: 100, K: 100, T: 1, R: 0.05, V: 0.2})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestParseOptionType(t *testing.T) {
	got, err := ParseOptionType("call")
	require.NoError(t, err)
	assert.Equal(t, OptionTypeCall, got)
	assert.Equal(t, "call", got.Label())

	got, err = ParseOptionType(" Put ")
	require.NoError(t, err)
	assert.Equal(t, OptionTypePut, got)

	_, err = ParseOptionType("straddle")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
