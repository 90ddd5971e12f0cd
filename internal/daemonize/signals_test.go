package daemonize

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalFlag_PendingAfterSighup(t *testing.T) {
	sf := Watch()
	assert.False(t, sf.Pending())

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGHUP))
	assert.Eventually(t, sf.Pending, time.Second, 5*time.Millisecond)
}

func TestSignalFlag_ClearResetsFlag(t *testing.T) {
	sf := Watch()
	sf.hup.Store(true)
	sf.Clear()
	assert.False(t, sf.Pending())
}
