package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenahub/event-system/models"
)

func TestAssignCalendarSlots(t *testing.T) {
	start := date(2025, time.June, 1)
	matches := []*models.Match{
		{ID: 1, HomeTeamID: 1, AwayTeamID: 2},
		{ID: 2, HomeTeamID: 3, AwayTeamID: 4},
		{ID: 3, HomeTeamID: 5, AwayTeamID: 6},
	}

	assignCalendarSlots(matches, start, time.Hour)

	for i, match := range matches {
		require.NotNil(t, match.StartsAt)
		assert.Equal(t, start.Add(time.Duration(i)*time.Hour), *match.StartsAt)
	}
}

func TestAssignCalendarSlotsEmpty(t *testing.T) {
	assert.NotPanics(t, func() {
		assignCalendarSlots(nil, date(2025, time.June, 1), time.Hour)
	})
}

func TestWinnerOf(t *testing.T) {
	tests := []struct {
		name string
		home *int
		away *int
		want *int
	}{
		{name: "home wins", home: intPtr(3), away: intPtr(1), want: intPtr(10)},
		{name: "away wins", home: intPtr(0), away: intPtr(2), want: intPtr(20)},
		{name: "draw has no winner", home: intPtr(1), away: intPtr(1)},
		{name: "missing scores"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := &models.Match{HomeTeamID: 10, AwayTeamID: 20, HomeScore: tt.home, AwayScore: tt.away}
			winner := winnerOf(match)
			if tt.want == nil {
				assert.Nil(t, winner)
				return
			}
			require.NotNil(t, winner)
			assert.Equal(t, *tt.want, *winner)
		})
	}
}
