package accounts_test

import (
	"testing"
	"time"

	accounts "github.com/forgehq/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsWithinThresholdPeriod(t *testing.T) {
	within, err := accounts.IsWithinThresholdPeriod(time.Now().Add(-time.Hour), "24h")
	require.NoError(t, err)
	assert.True(t, within)

	within, err = accounts.IsWithinThresholdPeriod(time.Now().Add(-48*time.Hour), "24h")
	require.NoError(t, err)
	assert.False(t, within)

	_, err = accounts.IsWithinThresholdPeriod(time.Now(), "not-a-duration")
	assert.Error(t, err)
}

func TestIsOutsideThresholdPeriod(t *testing.T) {
	outside, err := accounts.IsOutsideThresholdPeriod(time.Now().Add(-48*time.Hour), "24h")
	require.NoError(t, err)
	assert.True(t, outside)

	outside, err = accounts.IsOutsideThresholdPeriod(time.Now().Add(-time.Hour), "24h")
	require.NoError(t, err)
	assert.False(t, outside)
}
