package circuitbreaker

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerTrips(t *testing.T) {
	var transitions []gobreaker.State
	cb := NewCircuitBreaker("test", func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	})
	require.Equal(t, "test", cb.Name())

	failure := errors.New("connection refused")
	for i := 0; i <= MaxNumOfFailingRequests; i++ {
		_, err := cb.Execute(func() (interface{}, error) {
			return nil, failure
		})
		require.ErrorIs(t, err, failure)
	}

	_, err := cb.Execute(func() (interface{}, error) {
		return "ok", nil
	})
	require.True(t, IsOpen(err))
	require.Equal(t, gobreaker.StateOpen, cb.State())
	require.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)
}

func TestCircuitBreakerStaysClosed(t *testing.T) {
	cb := NewCircuitBreaker("test", nil)

	for i := 0; i < 3*MaxNumOfFailingRequests; i++ {
		res, err := cb.Execute(func() (interface{}, error) {
			return i, nil
		})
		require.NoError(t, err)
		require.Equal(t, i, res)
	}
	require.Equal(t, gobreaker.StateClosed, cb.State())
	require.False(t, IsOpen(errors.New("other")))
}
