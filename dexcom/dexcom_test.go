package dexcom

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gopkg.in/h2non/gock.v1"

	"glyco/defs"
)

type DexcomTestSuite struct {
	suite.Suite
	dexcom *Client
}

func TestDexcomTestSuite(t *testing.T) {
	suite.Run(t, new(DexcomTestSuite))
}

func testConfig() defs.DexcomConfig {
	return defs.DexcomConfig{Account: "testAccount", Password: "testPassword", Region: "us"}
}

func (suite *DexcomTestSuite) SetupTest() {
	suite.dexcom = New(testConfig(), zap.NewNop())
}

func (suite *DexcomTestSuite) AfterTest(_, _ string) {
	gock.Off()
}

func (suite *DexcomTestSuite) TestRegionHosts() {
	assert.Equal(suite.T(), regionHosts["us"], BaseURL("us"))
	assert.Equal(suite.T(), regionHosts["ous"], BaseURL("ous"))
	assert.Equal(suite.T(), regionHosts["jp"], BaseURL("jp"))
	assert.Equal(suite.T(), regionHosts["us"], BaseURL(""), "unknown regions default to us")
}

func (suite *DexcomTestSuite) TestCreateSession() {
	gock.New(BaseURL("us")).
		Post("/" + loginEndpoint).
		MatchType("json").
		JSON(map[string]string{
			"accountName":   "testAccount",
			"password":      "testPassword",
			"applicationId": appID,
		}).
		Reply(200).
		BodyString("test")

	sid, err := suite.dexcom.CreateSession(context.Background())
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "test", sid)
}

func (suite *DexcomTestSuite) TestGetReadings() {
	expected := []defs.Reading{
		{
			Time:       time.Unix(1651987807, 0),
			MgDl:       219,
			Mmol:       12.2,
			Trend:      "Flat",
			TrendArrow: "→",
		},
		{
			Time:       time.Unix(1651988108, 0),
			MgDl:       220,
			Mmol:       12.2,
			Trend:      "SingleUp",
			TrendArrow: "↑",
		},
	}

	gock.New(BaseURL("us")).
		Post("/" + loginEndpoint).
		Reply(200).
		BodyString("test")

	gock.New(BaseURL("us")).
		Get("/" + readingsEndpoint).
		MatchParams(map[string]string{
			"sessionId": "test",
			"minutes":   "1440",
			"maxCount":  "2",
		}).
		Reply(200).
		JSON([]map[string]interface{}{
			{"WT": "Date(1651987807000)", "Value": 219, "Trend": "Flat"},
			{"WT": "Date(1651988108000)", "Value": 220, "Trend": "SingleUp"},
		})

	rs, err := suite.dexcom.Readings(context.Background(), defs.MinuteLimit, 2)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), expected, rs)
}

func (suite *DexcomTestSuite) TestReadingsWindowTooLarge() {
	_, err := suite.dexcom.readings(context.Background(), defs.MinuteLimit+1, 1)
	assert.Error(suite.T(), err)
}

func (suite *DexcomTestSuite) TestCurrentReading() {
	gock.New(BaseURL("us")).
		Post("/" + loginEndpoint).
		Reply(200).
		BodyString("test")

	gock.New(BaseURL("us")).
		Get("/" + readingsEndpoint).
		MatchParams(map[string]string{
			"sessionId": "test",
			"minutes":   "10",
			"maxCount":  "1",
		}).
		Reply(200).
		JSON([]map[string]interface{}{
			{"WT": "Date(1651987807000)", "Value": 105, "Trend": "Flat"},
		})

	r, err := suite.dexcom.CurrentReading(context.Background())
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), r)
	assert.Equal(suite.T(), 105, r.MgDl)
}

func (suite *DexcomTestSuite) TestCurrentReadingAbsent() {
	gock.New(BaseURL("us")).
		Post("/" + loginEndpoint).
		Reply(200).
		BodyString("test")

	gock.New(BaseURL("us")).
		Get("/" + readingsEndpoint).
		Reply(200).
		JSON([]map[string]interface{}{})

	r, err := suite.dexcom.CurrentReading(context.Background())
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), r, "nothing within the freshness window")
}
