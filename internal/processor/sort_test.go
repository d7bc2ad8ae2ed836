package processor_test

import (
	"testing"
	"time"

	"github.com/XavierBriggs/Augur/internal/processor"
	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/stretchr/testify/assert"
)

func record(id string, sport models.SportCode, kickoff time.Time) models.GameOddsRecord {
	return models.GameOddsRecord{GameID: id, Sport: sport, Kickoff: kickoff, Book: "DK"}
}

func ids(records []models.GameOddsRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.GameID
	}
	return out
}

func TestSort_SportPriorityBeatsClockWithinDay(t *testing.T) {
	day1 := time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	in := []models.GameOddsRecord{
		record("nfl-day2", models.SportNFL, day2.Add(9*time.Hour)),
		record("mlb-day1", models.SportMLB, day1.Add(12*time.Hour)),
		record("nfl-day1", models.SportNFL, day1.Add(13*time.Hour)),
	}

	got := processor.Sort(in)
	assert.Equal(t, []string{"nfl-day1", "mlb-day1", "nfl-day2"}, ids(got))

	// input is untouched
	assert.Equal(t, "nfl-day2", in[0].GameID)
}

func TestSort_FullPriorityTable(t *testing.T) {
	kick := time.Date(2025, 11, 2, 19, 0, 0, 0, time.UTC)

	in := []models.GameOddsRecord{
		record("ncaam", models.SportNCAAM, kick),
		record("nhl", models.SportNHL, kick),
		record("nba", models.SportNBA, kick),
		record("ncaaf", models.SportNCAAF, kick),
		record("mlb", models.SportMLB, kick),
		record("nfl", models.SportNFL, kick),
	}

	assert.Equal(t, []string{"nfl", "mlb", "ncaaf", "nba", "nhl", "ncaam"}, ids(processor.Sort(in)))
}

func TestSort_KickoffThenInsertionOrder(t *testing.T) {
	day := time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC)

	in := []models.GameOddsRecord{
		record("late", models.SportNBA, day.Add(22*time.Hour)),
		record("first-tie", models.SportNBA, day.Add(19*time.Hour)),
		record("second-tie", models.SportNBA, day.Add(19*time.Hour)),
		record("early", models.SportNBA, day.Add(15*time.Hour)),
	}

	assert.Equal(t, []string{"early", "first-tie", "second-tie", "late"}, ids(processor.Sort(in)))
}

func TestSort_DayIsUTC(t *testing.T) {
	// 23:30 UTC on day1 is still day1 even though it is day2 further east
	day1 := time.Date(2025, 11, 2, 23, 30, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*3600)

	in := []models.GameOddsRecord{
		record("ncaam-day1", models.SportNCAAM, day1.In(tokyo)),
		record("nfl-day2", models.SportNFL, time.Date(2025, 11, 3, 13, 0, 0, 0, time.UTC)),
	}

	assert.Equal(t, []string{"ncaam-day1", "nfl-day2"}, ids(processor.Sort(in)))
}

func TestDedupe(t *testing.T) {
	kick := time.Date(2025, 11, 2, 13, 0, 0, 0, time.UTC)

	first := record("g1", models.SportNFL, kick)
	first.Metadata = &models.GameMetadata{TV: "first"}
	second := record("g1", models.SportNFL, kick)
	second.Metadata = &models.GameMetadata{TV: "second"}
	otherBook := record("g1", models.SportNFL, kick)
	otherBook.Book = "CIRCA"

	got := processor.Dedupe([]models.GameOddsRecord{first, second, otherBook})
	assert.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Metadata.TV)
	assert.Equal(t, "CIRCA", got[1].Book)
}
