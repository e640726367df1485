package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeString_AddMinutes(t *testing.T) {
	ts, err := NewTimeStringFromString("07:45")
	require.NoError(t, err)

	later, err := ts.AddMinutes(30)
	require.NoError(t, err)
	assert.Equal(t, TimeString("08:15"), later)

	earlier, err := ts.AddMinutes(-60)
	require.NoError(t, err)
	assert.Equal(t, TimeString("06:45"), earlier)

	_, err = ts.AddMinutes(24 * 60)
	assert.ErrorIs(t, err, ErrInvalidTimeString)
}

func TestTimeString_Compare(t *testing.T) {
	assert.True(t, TimeString("07:00").IsBefore("07:01"))
	assert.False(t, TimeString("07:00").IsBefore("07:00"))
	assert.True(t, TimeString("18:30").IsAfter("08:30"))
}

func TestTimeString_ScanPostgresTime(t *testing.T) {
	var ts TimeString
	require.NoError(t, ts.Scan("08:30:00"))
	assert.Equal(t, TimeString("08:30"), ts)

	require.Error(t, ts.Scan(42))
}

func TestDate_ParseAndFormat(t *testing.T) {
	d, err := ParseDate("2025-10-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-10", d.String())
	assert.Equal(t, NewDate(2025, time.October, 10), d)

	_, err = ParseDate("10/10/2025")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDate_DateOfUsesOwnLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	moment := time.Date(2025, time.October, 10, 1, 0, 0, 0, loc)

	assert.Equal(t, NewDate(2025, time.October, 10), DateOf(moment))
	assert.Equal(t, NewDate(2025, time.October, 9), DateOf(moment.UTC()))
}

func TestDate_At(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	at, err := NewDate(2025, time.October, 10).At("07:30", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.October, 10, 7, 30, 0, 0, loc), at)
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2025, time.October, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-10-10", d.String())

	require.NoError(t, d.Scan([]byte("2025-10-11")))
	assert.Equal(t, "2025-10-11", d.String())

	require.NoError(t, d.Scan("2025-10-12T00:00:00Z"))
	assert.Equal(t, "2025-10-12", d.String())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-10-12", v)
}

func TestDate_JSON(t *testing.T) {
	var payload struct {
		Date Date `json:"date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2025-10-10"}`), &payload))
	assert.Equal(t, NewDate(2025, time.October, 10), payload.Date)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-10-10"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"date":"tomorrow"}`), &payload))
}
