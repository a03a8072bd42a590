package surface

import (
	"testing"

	"github.com/leapstack-labs/leapchart/internal/testutil"
	"github.com/leapstack-labs/leapchart/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type detachedFixture struct {
	engine *fakeEngine
	window *fakeWindow
	sched  *fakeScheduler
	closed int
}

func newDetachedFixture() *detachedFixture {
	return &detachedFixture{engine: &fakeEngine{}, window: newFakeWindow(), sched: &fakeScheduler{}}
}

func (f *detachedFixture) open(t *testing.T, spec core.Spec) *Detached {
	t.Helper()
	d, err := OpenDetached(DetachedConfig{
		Engine:    f.engine,
		Window:    f.window,
		Scheduler: f.sched,
		Logger:    testutil.NewTestLogger(t),
		OnClose:   func() { f.closed++ },
	}, spec)
	require.NoError(t, err)
	return d
}

func TestDetached_MountsOnNextFrame(t *testing.T) {
	f := newDetachedFixture()
	d := f.open(t, barSpec())

	assert.Empty(t, f.engine.instances)
	f.sched.frame()

	inst := f.engine.last()
	require.NotNil(t, inst)
	assert.Equal(t, Element("modal-content"), inst.el)
	assert.Equal(t, Size{Width: 1200, Height: 700}, inst.size)
	assert.Equal(t, []core.Spec{barSpec()}, inst.options)
	assert.True(t, f.window.modals[0].loaded)
	assert.Same(t, inst, d.Instance())
}

func TestDetached_WaitsForModalSize(t *testing.T) {
	f := newDetachedFixture()
	f.window.modalSize = Size{}
	f.open(t, barSpec())
	f.sched.frame()

	assert.Empty(t, f.engine.instances, "no size reported yet")
	require.Len(t, f.sched.timers, 1)
	assert.Equal(t, measureTimeout, f.sched.timers[0].d)

	f.window.modals[0].report(Size{Width: 1100, Height: 640})
	inst := f.engine.last()
	require.NotNil(t, inst)
	assert.Equal(t, Size{Width: 1100, Height: 640}, inst.size)
	assert.True(t, f.sched.timers[0].cancelled)
	assert.Nil(t, f.window.modals[0].measure)

	f.sched.fireTimers()
	f.window.modals[0].report(Size{Width: 10, Height: 10})
	assert.Len(t, f.engine.instances, 1)
}

func TestDetached_FallsBackToViewport(t *testing.T) {
	f := newDetachedFixture()
	f.window.modalSize = Size{}
	f.open(t, barSpec())
	f.sched.frame()
	assert.Empty(t, f.engine.instances)

	f.sched.fireTimers()
	assert.Equal(t, Size{Width: 900, Height: 400}, f.engine.last().size)
}

func TestDetached_AutoResize(t *testing.T) {
	f := newDetachedFixture()
	f.open(t, barSpec())
	f.sched.frame()
	inst := f.engine.last()

	require.Len(t, f.sched.timers, 1)
	assert.Equal(t, followUpResize, f.sched.timers[0].d)
	f.sched.fireTimers()
	f.window.fireResize()

	assert.Equal(t, []Size{{}, {}}, inst.resizes)
}

func TestDetached_EscapeCloses(t *testing.T) {
	f := newDetachedFixture()
	d := f.open(t, barSpec())
	f.sched.frame()
	inst := f.engine.last()

	f.window.press(EscapeKey)

	assert.True(t, d.Closed())
	assert.True(t, inst.disposed)
	assert.True(t, f.window.modals[0].closed)
	assert.Empty(t, f.window.keys)
	assert.Empty(t, f.window.resize)
	assert.Equal(t, 1, f.closed)

	d.Close()
	assert.Equal(t, 1, f.closed)
}

func TestDetached_CloseBeforeFrame(t *testing.T) {
	f := newDetachedFixture()
	d := f.open(t, barSpec())

	d.Close()
	f.sched.frame()

	assert.Empty(t, f.engine.instances)
	assert.True(t, f.window.modals[0].closed)
}

func TestDetached_CloseWhileMeasuring(t *testing.T) {
	f := newDetachedFixture()
	f.window.modalSize = Size{}
	d := f.open(t, barSpec())
	f.sched.frame()

	d.Close()
	f.sched.fireTimers()

	assert.Empty(t, f.engine.instances)
	assert.Nil(t, f.window.modals[0].measure)
}

func TestDetached_CloseCancelsFollowUp(t *testing.T) {
	f := newDetachedFixture()
	d := f.open(t, barSpec())
	f.sched.frame()
	inst := f.engine.last()

	d.Close()
	f.sched.fireTimers()

	assert.Empty(t, inst.resizes)
}

func TestDetached_SnapshotIsIndependent(t *testing.T) {
	f := newDetachedFixture()
	spec := barSpec()
	d := f.open(t, spec)

	spec["type"] = "pie"
	spec["dataset"].([]any)[0].(map[string]any)["id"] = "other"

	assert.Equal(t, "bar", d.Spec()["type"])
	assert.Equal(t, "data", d.Spec()["dataset"].([]any)[0].(map[string]any)["id"])
}

func TestDetached_PanicIsContained(t *testing.T) {
	f := newDetachedFixture()
	f.engine.panicOn = "setOption"
	d := f.open(t, barSpec())

	assert.NotPanics(t, func() { f.sched.frame() })
	assert.True(t, d.Closed())
	assert.True(t, f.engine.last().disposed)
	assert.True(t, f.window.modals[0].closed)
}
