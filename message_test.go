package objectloop

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageConstructors(t *testing.T) {
	receiver := NewObject(nil)

	mv := newThreadMoveMessage(receiver)
	assert.Equal(t, MessageThreadMove, mv.Type())
	assert.Equal(t, receiver, mv.Receiver())

	dd := newDeferredDeleteMessage(receiver)
	assert.Equal(t, MessageDeferredDelete, dd.Type())

	user := newUserMessage(receiver, 42)
	require.GreaterOrEqual(t, int(user.Type()), int(firstUserMessageType))
}

func TestInvokeMessageReleasesDoneSemaphore(t *testing.T) {
	receiver := NewObject(nil)
	called := false
	inv := &boundInvocation{
		receiver: receiver,
		fn:       reflect.ValueOf(func() { called = true }),
	}
	done := newSemaphore(0)
	msg := newInvokeMessage(receiver, inv, nil, done, false)

	msg.invoke()

	assert.True(t, called)
	require.True(t, done.tryAcquire(1), "done semaphore should have been released")
}
