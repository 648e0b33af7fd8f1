package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDay(t *testing.T) {
	chicago := time.FixedZone("CST", -6*60*60)
	in := time.Date(2023, time.May, 7, 20, 30, 0, 0, chicago)
	assert.Equal(t, time.Date(2023, time.May, 8, 0, 0, 0, 0, time.UTC), Day(in))
}

func TestParseDay(t *testing.T) {
	for _, in := range []string{"2023-05-07", " 2023-05-07 ", "2023-05-07 13:45:00", "2023-05-07T13:45:00Z", "5/7/2023"} {
		got, err := ParseDay(in)
		require.NoError(t, err, in)
		assert.Equal(t, time.Date(2023, time.May, 7, 0, 0, 0, 0, time.UTC), got, in)
	}
	_, err := ParseDay("07.05.2023")
	assert.Error(t, err)
}
