package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsIntOr(t *testing.T) {
	tests := []struct {
		name    string
		in      fields
		want    int
		wantErr bool
	}{
		{"missing", fields{}, 7, false},
		{"null", fields{"n": nil}, 7, false},
		{"json number", fields{"n": 2500.0}, 2500, false},
		{"fraction truncated", fields{"n": 99.9}, 99, false},
		{"numeric string", fields{"n": "300"}, 300, false},
		{"leading zero is decimal", fields{"n": "010"}, 10, false},
		{"fraction string", fields{"n": "12.7"}, 12, false},
		{"not a number", fields{"n": "many"}, 0, true},
		{"out of range", fields{"n": 1e12}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.intOr("n", 7)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
