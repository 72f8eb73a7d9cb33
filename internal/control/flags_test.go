package control

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlags_Stop(t *testing.T) {
	var f Flags
	require.False(t, f.StopRequested())

	f.RequestStop()
	require.True(t, f.StopRequested())
	require.True(t, f.StopRequested(), "stop stays set")
}

func TestFlags_StopNotify(t *testing.T) {
	var f Flags

	select {
	case <-f.StopNotify():
		t.Fatal("closed before a stop was requested")
	default:
	}

	f.RequestStop()
	f.RequestStop()

	select {
	case <-f.StopNotify():
	default:
		t.Fatal("not closed after a stop was requested")
	}
}

func TestFlags_TakeReloadClears(t *testing.T) {
	var f Flags
	require.False(t, f.TakeReload())

	f.RequestReload()
	f.RequestReload()
	require.True(t, f.ReloadPending())
	require.True(t, f.TakeReload())
	require.False(t, f.TakeReload())
	require.False(t, f.ReloadPending())
}

func TestFlags_ReloadTakenOnce(t *testing.T) {
	var (
		f     Flags
		taken atomic.Int32
		wg    sync.WaitGroup
	)

	f.RequestReload()
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if f.TakeReload() {
				taken.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), taken.Load())
}
