package icron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTriggerInfo(t *testing.T) {
	ref := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	info, err := GetTriggerInfo("@every 5m", ref)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, info.TimeUntilNext)
	assert.Equal(t, ref.Add(5*time.Minute), info.Next)

	info, err = GetTriggerInfo("0 30 * * * *", ref)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, info.TimeUntilNext)

	_, err = GetTriggerInfo("not a schedule", ref)
	require.Error(t, err)
}
