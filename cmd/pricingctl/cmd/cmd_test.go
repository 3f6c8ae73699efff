package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (map[string]any, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	var body map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &body), out.String())
	return body, nil
}

func TestBlackScholesCommand(t *testing.T) {
	body, err := run(t, "bs", "--spot", "100", "--strike", "100", "--maturity", "1", "--rate", "0.05", "--vol", "0.2")
	require.NoError(t, err)
	assert.Equal(t, "call", body["option_type"])
	assert.InDelta(t, 10.4506, body["price"], 1e-4)
}

func TestMonteCarloCommand(t *testing.T) {
	first, err := run(t, "mc", "--paths", "2000", "--seed", "11")
	require.NoError(t, err)
	assert.Equal(t, "Monte Carlo", first["model"])
	assert.Equal(t, 2000.0, first["n_simulations"])
	assert.Equal(t, 11.0, first["seed"])

	second, err := run(t, "mc", "--paths", "2000", "--seed", "11")
	require.NoError(t, err)
	assert.Equal(t, first["price"], second["price"])
}

func TestMonteCarloCommand_RateModel(t *testing.T) {
	body, err := run(t, "mc", "--paths", "1000", "--maturity", "0.5", "--rate-model", "hull-white")
	require.NoError(t, err)
	assert.Equal(t, "Monte Carlo with Hull-White rates", body["model"])
	assert.Equal(t, "hull-white", body["rate_model"])
}

func TestRatesCommand(t *testing.T) {
	body, err := run(t, "rates", "--steps", "12", "--paths", "2", "--model", "black-derman-toy")
	require.NoError(t, err)
	assert.Len(t, body["time_points"], 13)
	assert.Len(t, body["paths"], 2)
}

func TestBondCommand(t *testing.T) {
	body, err := run(t, "bond", "--rate", "0.05", "--maturity", "0")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, body["price"], 1e-9)
}

func TestCompareCommand(t *testing.T) {
	body, err := run(t, "compare", "--models", "black-scholes")
	require.NoError(t, err)
	rows, ok := body["comparison"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, "Black-Scholes", rows[0].(map[string]any)["model"])
}

func TestInvalidInput(t *testing.T) {
	_, err := run(t, "mc", "--type", "straddle")
	assert.Error(t, err)

	_, err = run(t, "rates", "--model", "cir")
	assert.Error(t, err)
}
