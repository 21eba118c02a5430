package delivery_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crashlink-project/crashlink-go/pkg/delivery"
	"github.com/crashlink-project/crashlink-go/pkg/wire"
)

// encodeRaise builds a raw request message for feeding Catch directly.
func encodeRaise(t *testing.T, variant wire.Variant, req *wire.RaiseRequest) []byte {
	t.Helper()
	data, err := wire.EncodeRequest(variant, req)
	require.NoError(t, err)
	return data
}

func TestCatchReplyVariantMatchesRequest(t *testing.T) {
	for _, variant := range wire.Variants() {
		t.Run(variant.String(), func(t *testing.T) {
			catcher := delivery.NewCatcher(func(_ context.Context, _ *delivery.Exception) wire.Status {
				return wire.StatusSuccess
			})

			raw := encodeRaise(t, variant, &wire.RaiseRequest{
				Exception: 1,
				Code:      [wire.CodeWordCount]int64{1, 2},
				Thread:    42,
				Task:      43,
				Flavor:    6,
				OldState:  []uint32{1},
			})

			replyData, err := catcher.Catch(context.Background(), raw)
			require.NoError(t, err)

			msgID, err := wire.PeekMsgID(replyData)
			require.NoError(t, err)
			assert.Equal(t, variant.ReplyID(), msgID)
		})
	}
}

func TestCatchMalformedRequest(t *testing.T) {
	invoked := false
	catcher := delivery.NewCatcher(func(_ context.Context, _ *delivery.Exception) wire.Status {
		invoked = true
		return wire.StatusSuccess
	})

	_, err := catcher.Catch(context.Background(), []byte{0x01, 0x02})
	require.Error(t, err)
	assert.False(t, invoked, "handler must not run for undecodable input")
}

func TestCatchUnknownMessageID(t *testing.T) {
	// A structurally valid message with an ID outside the raise ID space.
	data, err := wire.Marshal(map[int64]any{1: uint32(9999)})
	require.NoError(t, err)

	catcher := delivery.NewCatcher(func(_ context.Context, _ *delivery.Exception) wire.Status {
		t.Fatal("handler must not run")
		return wire.StatusSuccess
	})

	_, err = catcher.Catch(context.Background(), data)
	require.Error(t, err)

	var unknown *wire.ErrUnknownVariant
	assert.True(t, errors.As(err, &unknown))
}

func TestCatchBusy(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var enteredOnce sync.Once

	catcher := delivery.NewCatcher(func(_ context.Context, _ *delivery.Exception) wire.Status {
		enteredOnce.Do(func() { close(entered) })
		<-release
		return wire.StatusSuccess
	})

	raw := encodeRaise(t, wire.VariantRaise, &wire.RaiseRequest{Exception: 1})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := catcher.Catch(context.Background(), raw)
		assert.NoError(t, err)
	}()

	// Wait until the first request is inside the handler, then overlap a
	// second one.
	<-entered
	_, err := catcher.Catch(context.Background(), raw)
	assert.ErrorIs(t, err, delivery.ErrBusy)

	close(release)
	wg.Wait()

	// After completion the catcher accepts requests again.
	_, err = catcher.Catch(context.Background(), raw)
	assert.NoError(t, err)
}

func TestCatchStatusPassthrough(t *testing.T) {
	statuses := []wire.Status{
		wire.StatusSuccess,
		wire.StatusInvalidArgument,
		wire.StatusFailure,
		wire.StatusNoAccess,
		wire.StatusAborted,
	}

	for _, status := range statuses {
		t.Run(status.String(), func(t *testing.T) {
			status := status
			catcher := delivery.NewCatcher(func(_ context.Context, _ *delivery.Exception) wire.Status {
				return status
			})

			raw := encodeRaise(t, wire.VariantRaise, &wire.RaiseRequest{Exception: 1})
			replyData, err := catcher.Catch(context.Background(), raw)
			require.NoError(t, err)

			reply, _, err := wire.DecodeReply(replyData)
			require.NoError(t, err)
			assert.Equal(t, status, reply.Status)
		})
	}
}

func TestServeOneTransportFailure(t *testing.T) {
	cause := errors.New("channel torn down")
	catcher := delivery.NewCatcher(func(_ context.Context, _ *delivery.Exception) wire.Status {
		return wire.StatusSuccess
	})

	err := catcher.ServeOne(context.Background(), &scriptedTransport{receiveErr: cause})
	require.Error(t, err)

	var transportErr *delivery.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, "receive", transportErr.Op)
}
