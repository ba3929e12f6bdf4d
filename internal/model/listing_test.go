package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLength(t *testing.T) {
	assert.Equal(t, `6'2"`, FormatLength(74))
	assert.Equal(t, `9'0"`, FormatLength(108))
	assert.Equal(t, "", FormatLength(0))
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: `6'2"`, want: 74},
		{in: `6'2`, want: 74},
		{in: `9'`, want: 108},
		{in: ` 5’10" `, want: 70},
		{in: "74", want: 74},
		{in: "", wantErr: true},
		{in: `6'12"`, wantErr: true},
		{in: "abc", wantErr: true},
		{in: "0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLength(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, CategoryFish.Valid())
	assert.False(t, Category("kiteboard").Valid())
	assert.True(t, ConditionLikeNew.Valid())
	assert.False(t, Condition("mint").Valid())
	assert.True(t, StatusSold.Valid())
	assert.False(t, ListingStatus("draft").Valid())
}
