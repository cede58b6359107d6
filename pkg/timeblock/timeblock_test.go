package timeblock

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"glyco/defs"
)

type TimeBlockTestSuite struct {
	suite.Suite
	thresholds defs.Thresholds
}

func TestTimeBlockTestSuite(t *testing.T) {
	suite.Run(t, new(TimeBlockTestSuite))
}

func (suite *TimeBlockTestSuite) SetupSuite() {
	suite.thresholds = defs.DefaultThresholds()
}

func at(hour int, mgdl int) defs.Reading {
	return defs.NewReading(time.Date(2023, 4, 1, hour, 0, 0, 0, time.UTC), mgdl)
}

func (suite *TimeBlockTestSuite) TestPartitionByLocalHour() {
	rs := []defs.Reading{
		at(0, 100), at(5, 100), // overnight
		at(6, 100), at(11, 100), // morning
		at(12, 100), at(17, 100), // afternoon
		at(18, 100), at(23, 100), // evening
	}
	rep := Analyze(rs, suite.thresholds)

	total := 0
	for _, name := range BlockNames {
		b := rep.Blocks[name]
		assert.Equal(suite.T(), 2, b.Count, name)
		total += b.Count
	}
	assert.Equal(suite.T(), len(rs), total, "blocks must partition the input exactly")
}

func (suite *TimeBlockTestSuite) TestAssessments() {
	// Morning fully in range, evening fully high.
	rs := []defs.Reading{
		at(8, 100), at(9, 110), at(10, 120),
		at(19, 220), at(20, 230), at(21, 240),
	}
	rep := Analyze(rs, suite.thresholds)

	morning := rep.Blocks["morning"]
	assert.Equal(suite.T(), 100.0, *morning.InRange)
	assert.Equal(suite.T(), "excellent", morning.Assessment)
	assert.Equal(suite.T(), 110.0, morning.Mean)
	assert.Equal(suite.T(), 100, morning.Min)
	assert.Equal(suite.T(), 120, morning.Max)

	evening := rep.Blocks["evening"]
	assert.Equal(suite.T(), 0.0, *evening.InRange)
	assert.Equal(suite.T(), 100.0, *evening.Above)
	assert.Equal(suite.T(), "problematic", evening.Assessment)

	assert.Equal(suite.T(), "morning", rep.Best)
	assert.Equal(suite.T(), "evening", rep.Worst)
	assert.Contains(suite.T(), rep.Insight, "morning")
	assert.Contains(suite.T(), rep.Insight, "evening")
}

func (suite *TimeBlockTestSuite) TestEmptyBlocksExcludedFromComparison() {
	rs := []defs.Reading{at(8, 100), at(9, 120)}
	rep := Analyze(rs, suite.thresholds)

	assert.Equal(suite.T(), "morning", rep.Best)
	assert.Equal(suite.T(), "morning", rep.Worst)

	overnight := rep.Blocks["overnight"]
	assert.Equal(suite.T(), defs.StatusNoData, overnight.Status)
	assert.Equal(suite.T(), 0, overnight.Count)
}

func (suite *TimeBlockTestSuite) TestEmptyBlockOmitsPercentages() {
	rep := Analyze([]defs.Reading{at(8, 250)}, suite.thresholds)

	raw, err := json.Marshal(rep.Blocks["overnight"])
	assert.NoError(suite.T(), err)
	assert.NotContains(suite.T(), string(raw), "time_in_range_percent")
	assert.NotContains(suite.T(), string(raw), "time_below_percent")
	assert.NotContains(suite.T(), string(raw), "time_above_percent")

	// A populated block keeps an explicit zero percentage.
	raw, err = json.Marshal(rep.Blocks["morning"])
	assert.NoError(suite.T(), err)
	assert.Contains(suite.T(), string(raw), `"time_in_range_percent":0`)
}

func (suite *TimeBlockTestSuite) TestTieResolvesToEarlierBlock() {
	// Same TIR everywhere: the fixed iteration order wins both slots.
	rs := []defs.Reading{at(1, 100), at(8, 100), at(14, 100), at(20, 100)}
	rep := Analyze(rs, suite.thresholds)

	assert.Equal(suite.T(), "overnight", rep.Best)
	assert.Equal(suite.T(), "overnight", rep.Worst)
}

func (suite *TimeBlockTestSuite) TestMultiDayHoursMerge() {
	day1 := at(8, 100)
	day2 := defs.NewReading(time.Date(2023, 4, 2, 8, 0, 0, 0, time.UTC), 200)
	rep := Analyze([]defs.Reading{day1, day2}, suite.thresholds)

	assert.Equal(suite.T(), 2, rep.Blocks["morning"].Count, "same hour on different days shares a block")
}

func (suite *TimeBlockTestSuite) TestAssessmentBoundaries() {
	assert.Equal(suite.T(), "excellent", assess(80))
	assert.Equal(suite.T(), "good", assess(70))
	assert.Equal(suite.T(), "needs attention", assess(50))
	assert.Equal(suite.T(), "problematic", assess(49.9))
}
