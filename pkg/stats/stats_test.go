package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"glyco/defs"
)

type StatsTestSuite struct {
	suite.Suite
}

func TestStatsTestSuite(t *testing.T) {
	suite.Run(t, new(StatsTestSuite))
}

func (suite *StatsTestSuite) TestComputeFlatSeries() {
	values := make([]int, 13)
	for i := range values {
		values[i] = 100
	}

	sum := Compute(values)
	assert.Equal(suite.T(), 13, sum.Count)
	assert.Equal(suite.T(), 100.0, sum.Mean, "means do not equal")
	assert.Equal(suite.T(), 0.0, sum.StdDev, "deviations do not equal")
	assert.Equal(suite.T(), 0.0, sum.CV)
	assert.Equal(suite.T(), 100, sum.Min)
	assert.Equal(suite.T(), 100, sum.Max)
	assert.Equal(suite.T(), 5.6, sum.MeanMmol)
}

func (suite *StatsTestSuite) TestComputeSingleValue() {
	sum := Compute([]int{120})
	assert.Equal(suite.T(), 0.0, sum.StdDev, "single sample deviation should be 0")
	assert.Equal(suite.T(), 0.0, sum.CV)
	assert.Equal(suite.T(), 120.0, sum.Mean)
}

func (suite *StatsTestSuite) TestComputeSampleDeviation() {
	sum := Compute([]int{90, 110})
	assert.Equal(suite.T(), 100.0, sum.Mean)
	// Sample deviation of {90, 110}.
	assert.InDelta(suite.T(), 14.1, sum.StdDev, 0.05)
	assert.InDelta(suite.T(), 14.1, sum.CV, 0.05)
}

func (suite *StatsTestSuite) TestRangesBands() {
	values := []int{
		40, 50, // below 54
		60, 65, // 54..69
		100, 120, 150, 170, // in range
		200, 240, // 181..250
		260, 300, // above 250
	}
	dist := Ranges(values, defs.DefaultThresholds())

	assert.Equal(suite.T(), 16.7, dist.VeryLow)
	assert.Equal(suite.T(), 16.7, dist.Low)
	assert.Equal(suite.T(), 33.3, dist.InRange)
	assert.Equal(suite.T(), 16.7, dist.High)
	assert.Equal(suite.T(), 16.7, dist.VeryHigh)

	assert.Equal(suite.T(), 33.3, dist.Below, "below should include very low")
	assert.Equal(suite.T(), 33.3, dist.Above, "above should include very high")

	total := dist.VeryLow + dist.Low + dist.InRange + dist.High + dist.VeryHigh
	assert.InDelta(suite.T(), 100.0, total, 0.5, "bands should sum to ~100 modulo rounding")
}

func (suite *StatsTestSuite) TestRangesAllInRange() {
	values := []int{100, 100, 100}
	dist := Ranges(values, defs.DefaultThresholds())

	assert.Equal(suite.T(), 100.0, dist.InRange)
	assert.Equal(suite.T(), 0.0, dist.Below)
	assert.Equal(suite.T(), 0.0, dist.Above)
	assert.Equal(suite.T(), 0.0, dist.VeryLow)
	assert.Equal(suite.T(), 0.0, dist.VeryHigh)
}

func (suite *StatsTestSuite) TestEmptyInput() {
	assert.Equal(suite.T(), Summary{}, Compute(nil))
	assert.Equal(suite.T(), Distribution{}, Ranges(nil, defs.DefaultThresholds()))
}
