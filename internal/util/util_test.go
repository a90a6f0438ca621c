package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTTL(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{-time.Second, "expired"},
		{0, "expired"},
		{400 * time.Millisecond, "expired"},
		{45 * time.Second, "45s"},
		{5*time.Minute + 10*time.Second, "5m10s"},
		{time.Hour + 30*time.Minute, "1h30m"},
		{24 * time.Hour, "1d0h"},
		{26*time.Hour + 59*time.Minute, "1d2h"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTTL(tt.in), tt.in.String())
	}
}
