package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockNotifierRecordsEvents(t *testing.T) {
	notifier := NewMockNotifier()

	events := []SeatEvent{
		{Event: EventSeatsHeld, ShowtimeID: 7, SeatIDs: []int{5, 6}},
		{Event: EventSeatsBooked, ShowtimeID: 7, SeatIDs: []int{5, 6}, OrderCode: "ORD-AAA"},
		{Event: EventSeatsReleased, ShowtimeID: 9, SeatIDs: []int{1}},
	}

	for _, event := range events {
		require.NoError(t, notifier.Notify(context.Background(), event))
	}

	diff := cmp.Diff(events, notifier.Events(), cmpopts.IgnoreFields(SeatEvent{}, "OccurredAt"))
	assert.Empty(t, diff, "recorded events mismatch (-want +got):\n%s", diff)
}

func TestMockNotifierFailWith(t *testing.T) {
	notifier := NewMockNotifier()
	brokerDown := errors.New("broker down")

	notifier.FailWith(brokerDown)

	err := notifier.Notify(context.Background(), SeatEvent{Event: EventSeatsHeld})
	assert.ErrorIs(t, err, brokerDown)
	assert.Empty(t, notifier.Events())
}
