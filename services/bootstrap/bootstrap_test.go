package bootstrap

import (
	"testing"

	"github.com/nmxmxh/actorkernel/internal/handle"
	"github.com/nmxmxh/actorkernel/internal/logging"
	"github.com/nmxmxh/actorkernel/internal/mailbox"
	"github.com/nmxmxh/actorkernel/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_InitAlwaysSucceeds(t *testing.T) {
	s := &Service{}
	ctx := service.New(handle.New(0, 1), s, logging.Default("test"))
	require.NoError(t, s.Init(ctx, "whatever args", nil))
}

func TestService_HandleDoesNotPanic(t *testing.T) {
	s := &Service{}
	ctx := service.New(handle.New(0, 1), s, logging.Default("test"))
	assert.NotPanics(t, func() {
		s.Handle(ctx, &mailbox.Message{Payload: []byte("ignored")})
	})
}

func TestFactory_ReturnsFreshInstanceEachCall(t *testing.T) {
	a := Factory()
	b := Factory()
	assert.NotSame(t, a, b)
}
