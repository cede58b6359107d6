package readings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"glyco/defs"
)

type ReadingsTestSuite struct {
	suite.Suite
}

func TestReadingsTestSuite(t *testing.T) {
	suite.Run(t, new(ReadingsTestSuite))
}

func (suite *ReadingsTestSuite) TestParse() {
	rs, err := Parse([]Record{
		{GlucoseMgDl: 120, Timestamp: "2023-04-01T08:00:00Z"},
		{GlucoseMgDl: 95, Timestamp: "2023-04-01T08:05:00+02:00"},
	})
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), rs, 2)

	assert.Equal(suite.T(), 120, rs[0].MgDl)
	assert.Equal(suite.T(), 6.7, rs[0].Mmol)
	assert.Equal(suite.T(), time.Date(2023, 4, 1, 8, 0, 0, 0, time.UTC), rs[0].Time.UTC())
}

func (suite *ReadingsTestSuite) TestParseNaiveTimestampAsUTC() {
	rs, err := Parse([]Record{{GlucoseMgDl: 100, Timestamp: "2023-04-01T08:00:00"}})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), time.Date(2023, 4, 1, 8, 0, 0, 0, time.UTC), rs[0].Time.UTC())
}

func (suite *ReadingsTestSuite) TestParseMissingGlucose() {
	_, err := Parse([]Record{{Timestamp: "2023-04-01T08:00:00Z"}})
	assert.ErrorIs(suite.T(), err, ErrValidation)
}

func (suite *ReadingsTestSuite) TestParseMissingTimestamp() {
	_, err := Parse([]Record{{GlucoseMgDl: 100}})
	assert.ErrorIs(suite.T(), err, ErrValidation)
}

func (suite *ReadingsTestSuite) TestParseUnparseableTimestamp() {
	_, err := Parse([]Record{{GlucoseMgDl: 100, Timestamp: "yesterday-ish"}})
	assert.ErrorIs(suite.T(), err, ErrValidation)
}

func (suite *ReadingsTestSuite) TestParseAbortsWholeBatch() {
	rs, err := Parse([]Record{
		{GlucoseMgDl: 100, Timestamp: "2023-04-01T08:00:00Z"},
		{GlucoseMgDl: 110, Timestamp: "not a time"},
	})
	assert.Error(suite.T(), err, "one bad record fails the whole batch")
	assert.Nil(suite.T(), rs)
}

func (suite *ReadingsTestSuite) TestSortAndCap() {
	base := time.Date(2023, 4, 1, 8, 0, 0, 0, time.UTC)
	rs := []defs.Reading{
		defs.NewReading(base.Add(10*time.Minute), 110),
		defs.NewReading(base, 100),
		defs.NewReading(base.Add(5*time.Minute), 105),
	}

	asc := SortAscending(rs)
	assert.Equal(suite.T(), []int{100, 105, 110}, Values(asc))
	assert.Equal(suite.T(), []int{110, 100, 105}, Values(rs), "input must not be mutated")

	desc := SortDescending(rs)
	assert.Equal(suite.T(), []int{110, 105, 100}, Values(desc))

	capped := CapNewest(rs, 2)
	assert.Equal(suite.T(), []int{110, 105}, Values(capped), "cap keeps the most recent")
}

func (suite *ReadingsTestSuite) TestCapLargerThanInput() {
	rs := []defs.Reading{defs.NewReading(time.Now(), 100)}
	assert.Len(suite.T(), CapNewest(rs, 10), 1)
}
