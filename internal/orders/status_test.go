package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	legal := []struct{ from, to Status }{
		{StatusPending, StatusProcessing},
		{StatusPending, StatusCancelled},
		{StatusProcessing, StatusShipped},
		{StatusShipped, StatusDelivered},
	}
	for _, e := range legal {
		assert.True(t, CanTransition(e.from, e.to), "%s -> %s", e.from, e.to)
	}

	illegal := []struct{ from, to Status }{
		{StatusPending, StatusShipped},
		{StatusPending, StatusDelivered},
		{StatusProcessing, StatusCancelled},
		{StatusProcessing, StatusDelivered},
		{StatusShipped, StatusCancelled},
		{StatusShipped, StatusProcessing},
		{StatusDelivered, StatusPending},
		{StatusDelivered, StatusCancelled},
		{StatusCancelled, StatusPending},
		{StatusCancelled, StatusProcessing},
		{StatusPending, StatusPending},
		{StatusPending, Status("returned")},
		{Status("returned"), StatusPending},
	}
	for _, e := range illegal {
		assert.False(t, CanTransition(e.from, e.to), "%s -> %s", e.from, e.to)
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		assert.True(t, ValidStatus(s), string(s))
	}
	assert.False(t, ValidStatus(Status("returned")))
	assert.False(t, ValidStatus(Status("")))
}
