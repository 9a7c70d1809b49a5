package logbuf

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndLast(t *testing.T) {
	Reset()
	defer Reset()

	Append("import.completed", map[string]interface{}{"imported": 3})
	Append("sap.sent", nil)

	got := Last(10)
	require.Len(t, got, 2)
	assert.Equal(t, "import.completed", got[0].Event)
	assert.Equal(t, "sap.sent", got[1].Event)
	assert.False(t, got[0].Ts.IsZero())
}

func TestCapacityEviction(t *testing.T) {
	Reset()
	defer Reset()

	for i := 0; i < capacity+50; i++ {
		Append(fmt.Sprintf("event-%d", i), nil)
	}

	got := Last(maxDrain)
	require.Len(t, got, maxDrain)
	// The newest entry survives; everything returned is in order.
	assert.Equal(t, fmt.Sprintf("event-%d", capacity+49), got[len(got)-1].Event)
	assert.Equal(t, fmt.Sprintf("event-%d", capacity+50-maxDrain), got[0].Event)
}

func TestLastCapsAtMaxDrain(t *testing.T) {
	Reset()
	defer Reset()

	for i := 0; i < maxDrain+100; i++ {
		Append("event", nil)
	}

	assert.Len(t, Last(maxDrain+100), maxDrain)
	assert.Len(t, Last(0), maxDrain)
	assert.Len(t, Last(-5), maxDrain)
	assert.Len(t, Last(3), 3)
}

func TestLastReturnsACopy(t *testing.T) {
	Reset()
	defer Reset()

	Append("first", nil)
	got := Last(1)
	got[0].Event = "mutated"

	assert.Equal(t, "first", Last(1)[0].Event)
}
