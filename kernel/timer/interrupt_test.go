package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func withWriteHooks(t *testing.T) (sie *uint64, sstatus *uint64) {
	t.Helper()
	oldSie, oldSstatus := writeSieFn, writeSstatusSIEFn
	var gotSie, gotSstatus uint64
	writeSieFn = func(mask uint64) { gotSie = mask }
	writeSstatusSIEFn = func(mask uint64) { gotSstatus = mask }
	t.Cleanup(func() {
		writeSieFn = oldSie
		writeSstatusSIEFn = oldSstatus
	})
	return &gotSie, &gotSstatus
}

func TestEnableTimerInterrupt(t *testing.T) {
	sie, sstatus := withWriteHooks(t)

	EnableTimerInterrupt()

	assert.Equal(t, sieTimerBit, *sie)
	assert.Equal(t, sstatusSIEBit, *sstatus)
}

func TestRegisterAdvancesTimerAndSuspends(t *testing.T) {
	withReadTime(t, 0)
	oldSetTimer := setTimerFn
	setTimerFn = func(uint64) {}
	defer func() { setTimerFn = oldSetTimer }()

	oldSetHandler := setTimerHandlerFn
	var installed func()
	setTimerHandlerFn = func(fn func()) { installed = fn }
	defer func() { setTimerHandlerFn = oldSetHandler }()

	called := false
	Register(func() { called = true })

	installed()

	assert.True(t, called)
}
