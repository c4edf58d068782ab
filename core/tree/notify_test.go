package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeedSubscribePublish(t *testing.T) {
	var f feed[Event]

	var got []Event
	cancel := f.subscribe(func(ev Event) { got = append(got, ev) })

	f.publish(Event{Root: "/w", Packages: 2, Reason: ReasonRefresh})
	assert.Len(t, got, 1)
	assert.Equal(t, "/w", got[0].Root)

	cancel()
	f.publish(Event{Root: "/w", Packages: 3, Reason: ReasonRefresh})
	assert.Len(t, got, 1, "cancelled subscribers stop receiving")
}

func TestFeedMultipleSubscribers(t *testing.T) {
	var f feed[CycleNotice]

	a, b := 0, 0
	f.subscribe(func(CycleNotice) { a++ })
	cancelB := f.subscribe(func(CycleNotice) { b++ })

	f.publish(CycleNotice{From: "x", To: "y"})
	cancelB()
	f.publish(CycleNotice{From: "x", To: "y"})

	assert.Equal(t, 2, a)
	assert.Equal(t, 1, b)
}

func TestFeedPublishWithNoSubscribers(t *testing.T) {
	var f feed[Event]
	assert.NotPanics(t, func() { f.publish(Event{}) })
}
