package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Phantato/ruscv/kernel/kconf"
)

func withReadTime(t *testing.T, value uint64) {
	t.Helper()
	old := readTimeFn
	readTimeFn = func() uint64 { return value }
	t.Cleanup(func() { readTimeFn = old })
}

func TestNowMicros(t *testing.T) {
	withReadTime(t, clockFreq*3) // 3 seconds of cycles
	assert.Equal(t, uint64(3_000_000), NowMicros())
}

func TestSetNextTriggerAdvancesByOneTick(t *testing.T) {
	withReadTime(t, 1000)

	var got uint64
	oldSetTimer := setTimerFn
	setTimerFn = func(deadline uint64) { got = deadline }
	defer func() { setTimerFn = oldSetTimer }()

	SetNextTrigger()

	assert.Equal(t, uint64(1000)+clockFreq/kconf.TicksPerSec, got)
}
