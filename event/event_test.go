// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/blinklabs-io/ajnadex/event"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testEvtType event.EventType = "test.event"

func receive(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "event channel closed unexpectedly")
		return evt
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return event.Event{}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, sub1Ch := eb.Subscribe(testEvtType)
	_, sub2Ch := eb.Subscribe(testEvtType)
	_, otherCh := eb.Subscribe("other.event")
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 999))
	require.Equal(t, 999, receive(t, sub1Ch).Data)
	require.Equal(t, 999, receive(t, sub2Ch).Data)
	select {
	case <-otherCh:
		t.Fatal("received event for another type")
	default:
	}
}

func TestEventBusUnsubscribeClosesChannel(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subId, subCh := eb.Subscribe(testEvtType)
	eb.Unsubscribe(testEvtType, subId)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 1))
	_, ok := <-subCh
	require.False(t, ok)
	// Unknown ids are ignored
	eb.Unsubscribe(testEvtType, subId)
}

func TestEventBusSubscribeFunc(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	var got atomic.Uint64
	done := make(chan struct{})
	eb.SubscribeFunc(
		event.TransactionAppliedEventType,
		func(evt event.Event) {
			data := evt.Data.(event.TransactionAppliedEvent)
			if got.Add(data.BlockNumber) == 3 {
				close(done)
			}
		},
	)
	for _, block := range []uint64{1, 2} {
		eb.Publish(
			event.TransactionAppliedEventType,
			event.NewEvent(
				event.TransactionAppliedEventType,
				event.TransactionAppliedEvent{BlockNumber: block},
			),
		)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for handler")
	}
	// Stop waits for the handler goroutine, which goleak verifies
	eb.Stop()
}

func TestEventBusFullSubscriberKeepsSubscription(t *testing.T) {
	reg := prometheus.NewRegistry()
	eb := event.NewEventBus(reg, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(testEvtType)
	for i := range event.EventQueueSize + 5 {
		eb.Publish(testEvtType, event.NewEvent(testEvtType, i))
	}
	for i := range event.EventQueueSize {
		require.Equal(t, i, receive(t, subCh).Data)
	}
	// Still subscribed after the overflow
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "after"))
	require.Equal(t, "after", receive(t, subCh).Data)
	require.Equal(t, 1, testutil.CollectAndCount(reg, "ajnadex_event_delivery_errors_total"))
}

type failingSubscriber struct {
	closed atomic.Bool
}

func (f *failingSubscriber) Deliver(event.Event) error {
	return errors.New("deliver failed")
}

func (f *failingSubscriber) Close() {
	f.closed.Store(true)
}

type panickingSubscriber struct {
	failingSubscriber
}

func (p *panickingSubscriber) Deliver(event.Event) error {
	panic("boom")
}

func TestEventBusDeliveryFailureUnregisters(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	failing := &failingSubscriber{}
	panicking := &panickingSubscriber{}
	require.NotZero(t, eb.RegisterSubscriber(testEvtType, failing))
	require.NotZero(t, eb.RegisterSubscriber(testEvtType, panicking))
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "x"))
	require.True(t, failing.closed.Load())
	require.True(t, panicking.closed.Load())
}

func TestEventBusPublishAsync(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	_, subCh := eb.Subscribe(event.LiquidationEventType)
	evt := event.LiquidationEvent{
		Transition: event.LiquidationKicked,
		PoolID:     "0xabc",
		AuctionID:  "0xabc-0x01-5",
	}
	require.True(
		t,
		eb.PublishAsync(
			event.LiquidationEventType,
			event.NewEvent(event.LiquidationEventType, evt),
		),
	)
	require.Equal(t, evt, receive(t, subCh).Data)
	eb.Stop()
	require.False(
		t,
		eb.PublishAsync(
			event.LiquidationEventType,
			event.NewEvent(event.LiquidationEventType, evt),
		),
	)
}

func TestEventBusStop(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	_, subCh := eb.Subscribe(testEvtType)
	eb.Stop()
	eb.Stop()
	_, ok := <-subCh
	require.False(t, ok)
	subId, lateCh := eb.Subscribe(testEvtType)
	require.Zero(t, subId)
	_, ok = <-lateCh
	require.False(t, ok)
	require.Zero(t, eb.SubscribeFunc(testEvtType, func(event.Event) {}))
}
