package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedClock(t *testing.T) {
	assert.Equal(t, "2025-06-15", FixedClock("2025-06-15").Today())
}

func TestSystemClock(t *testing.T) {
	got := SystemClock{Location: time.UTC}.Today()

	parsed, err := time.Parse("2006-01-02", got)
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), parsed, 48*time.Hour)
}
