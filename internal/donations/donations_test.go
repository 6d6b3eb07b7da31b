package donations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(patronID, amount, date, status string) map[string]string {
	return map[string]string{
		ColPatronID: patronID,
		ColAmount:   amount,
		ColDate:     date,
		ColStatus:   status,
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"$100.00", 100.00, true},
		{"$1,234.56", 1234.56, true},
		{"250", 250, true},
		{` "$50.00" `, 50, true},
		{"", 0, false},
		{"free", 0, false},
		{"$", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseAmount(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		assert.InDelta(t, tt.want, got, 0.0001, "input %q", tt.input)
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$125.00", FormatAmount(125))
	assert.Equal(t, "$0.00", FormatAmount(0))
	assert.Equal(t, "$1234.50", FormatAmount(1234.5))
}

func TestBuildIndexGroupsAndSeparatesOrphans(t *testing.T) {
	valid := map[string]bool{"p1": true, "p2": true}
	ix := BuildIndex([]map[string]string{
		row("p1", "$10.00", "2020-01-01", "Paid"),
		row("p3", "$99.00", "2020-02-01", "Paid"),
		row("p1", "$20.00", "2020-03-01", "Paid"),
		row("p3", "$1.00", "2020-04-01", "Paid"),
	}, valid)

	assert.Len(t, ix.ForPatron("p1"), 2)
	assert.Empty(t, ix.ForPatron("p2"))
	assert.Empty(t, ix.ForPatron("p3"), "orphans must not appear in the main index")
	assert.Equal(t, []string{"p3"}, ix.OrphanIDs())
	assert.Equal(t, 2, ix.OrphanCount())
}

func TestBuildIndexWarnsOnParseFailures(t *testing.T) {
	ix := BuildIndex([]map[string]string{
		row("p1", "not money", "not a date", "Paid"),
	}, map[string]bool{"p1": true})

	require.Len(t, ix.ForPatron("p1"), 1)
	d := ix.ForPatron("p1")[0]
	assert.False(t, d.AmountOK)
	assert.Zero(t, d.Amount)
	assert.False(t, d.DateOK)
	assert.Len(t, ix.Warnings(), 2)
}

func TestLifetimeExcludesRefundsAndUnparseable(t *testing.T) {
	ix := BuildIndex([]map[string]string{
		row("p1", "$100.00", "2023-01-15", "Paid"),
		row("p1", "$50.00", "2023-03-10", "Refunded"),
		row("p1", "$25.00", "2023-06-20", "Paid"),
		row("p1", "garbage", "2023-07-01", "Paid"),
	}, map[string]bool{"p1": true})

	assert.InDelta(t, 125.00, Lifetime(ix.ForPatron("p1")), 0.0001)
}

func TestLifetimeZeroWhenNothingQualifies(t *testing.T) {
	ix := BuildIndex([]map[string]string{
		row("p1", "$50.00", "2023-03-10", "Refunded"),
	}, map[string]bool{"p1": true})

	assert.Zero(t, Lifetime(ix.ForPatron("p1")))
	assert.Zero(t, Lifetime(nil))
}

func TestMostRecentPicksLatestQualifying(t *testing.T) {
	ix := BuildIndex([]map[string]string{
		row("p1", "$100.00", "2023-01-15", "Paid"),
		row("p1", "$999.00", "2023-12-31", "Refunded"),
		row("p1", "$25.00", "2023-06-20", "Paid"),
	}, map[string]bool{"p1": true})

	recent, ok := MostRecent(ix.ForPatron("p1"))
	require.True(t, ok)
	assert.Equal(t, "2023-06-20", recent.RawDate)
	assert.InDelta(t, 25.00, recent.Amount, 0.0001)
}

func TestMostRecentTieBreaksToFirstOccurrence(t *testing.T) {
	ix := BuildIndex([]map[string]string{
		row("p1", "$10.00", "2023-06-20", "Paid"),
		row("p1", "$20.00", "2023-06-20", "Paid"),
	}, map[string]bool{"p1": true})

	recent, ok := MostRecent(ix.ForPatron("p1"))
	require.True(t, ok)
	assert.InDelta(t, 10.00, recent.Amount, 0.0001)
}

func TestMostRecentSkipsUnparseableDates(t *testing.T) {
	ix := BuildIndex([]map[string]string{
		row("p1", "$10.00", "someday", "Paid"),
		row("p1", "$20.00", "2023-01-01", "Paid"),
	}, map[string]bool{"p1": true})

	recent, ok := MostRecent(ix.ForPatron("p1"))
	require.True(t, ok)
	assert.InDelta(t, 20.00, recent.Amount, 0.0001)
}

func TestMostRecentAbsentWhenNothingQualifies(t *testing.T) {
	ix := BuildIndex([]map[string]string{
		row("p1", "$10.00", "2023-01-01", "Refunded"),
	}, map[string]bool{"p1": true})

	_, ok := MostRecent(ix.ForPatron("p1"))
	assert.False(t, ok)
}

func TestEarliestDate(t *testing.T) {
	ix := BuildIndex([]map[string]string{
		row("p1", "$10.00", "2020-05-01", "Paid"),
		row("p1", "$20.00", "2019-03-01", "Paid"),
		row("p1", "$30.00", "2018-01-01", "Refunded"),
	}, map[string]bool{"p1": true})

	earliest, ok := EarliestDate(ix.ForPatron("p1"))
	require.True(t, ok)
	assert.Equal(t, time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC), earliest)
}

func TestEarliestDateAbsentWithoutQualifyingDates(t *testing.T) {
	_, ok := EarliestDate(nil)
	assert.False(t, ok)
}
