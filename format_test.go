package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatNano(t *testing.T) {
	t.Run("current year omits the year", func(t *testing.T) {
		now := time.Now()
		got := formatNano(now.UnixNano())
		assert.NotContains(t, got, now.Format("2006"))
	})

	t.Run("past year includes the year", func(t *testing.T) {
		old := time.Date(2019, time.July, 4, 12, 0, 0, 0, time.UTC)
		got := formatNano(old.UnixNano())
		assert.Contains(t, got, "2019")
	})
}
