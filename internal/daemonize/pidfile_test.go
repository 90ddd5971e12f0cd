package daemonize

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPidfile_AcquireWritesPid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actorkerneld.pid")
	pf, err := Acquire(path)
	require.NoError(t, err)
	defer pf.Release()

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid())+"\n", string(contents))
}

func TestPidfile_AcquireFailsWhenAlreadyLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actorkerneld.pid")
	first, err := Acquire(path)
	require.NoError(t, err)
	defer first.Release()

	_, err = Acquire(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), strconv.Itoa(os.Getpid()))
}

func TestPidfile_ReleaseUnlinksFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actorkerneld.pid")
	pf, err := Acquire(path)
	require.NoError(t, err)

	require.NoError(t, pf.Release())
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPidfile_ReleaseUnlocksForNextAcquire(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actorkerneld.pid")
	first, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, first.Release())

	second, err := Acquire(path)
	require.NoError(t, err)
	defer second.Release()
}

func TestReadHolderPid_TrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "held.pid")
	require.NoError(t, os.WriteFile(path, []byte("12345\n"), 0644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "12345", readHolderPid(f))
}
