package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
)

// newTestContext builds an echo.Context for a bare query-parsing test
// that never writes a response, matching the teacher's
// handler_session_test.go pattern of e.NewContext(req, rec).
func newTestContext(method, target string) *echo.Context {
	c, _ := newRecordedContext(method, target, nil)
	return c
}

// newRecordedContext builds an echo.Context plus its backing recorder,
// for tests that need to inspect the written status/body. body may be
// nil for requests with no payload.
func newRecordedContext(method, target string, body io.Reader) (*echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestParseFilters(t *testing.T) {
	c := newTestContext(http.MethodGet, "/applications?authorities=Camden,Hackney&statuses=pending&postcode=SW1A+1AA&opportunity_score_min=50&lat=51.5&lon=-0.1&radius_km=2.5")
	f := parseFilters(c)

	assert.Equal(t, []string{"Camden", "Hackney"}, f.Authorities)
	assert.Equal(t, []string{"pending"}, f.Statuses)
	assert.Equal(t, "SW1A 1AA", f.Postcode)
	if assert.NotNil(t, f.OpportunityScoreMin) {
		assert.Equal(t, 50.0, *f.OpportunityScoreMin)
	}
	if assert.NotNil(t, f.Lat) {
		assert.Equal(t, 51.5, *f.Lat)
	}
	if assert.NotNil(t, f.RadiusKM) {
		assert.Equal(t, 2.5, *f.RadiusKM)
	}
}

func TestParseFilters_Empty(t *testing.T) {
	c := newTestContext(http.MethodGet, "/applications")
	f := parseFilters(c)

	assert.Nil(t, f.Authorities)
	assert.Nil(t, f.OpportunityScoreMin)
	assert.Equal(t, "", f.Postcode)
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitCSV("a, b,c"))
	assert.Nil(t, splitCSV(""))
	assert.Nil(t, splitCSV(" , "))
}

func TestParseFloatParam(t *testing.T) {
	c := newTestContext(http.MethodGet, "/x?v=1.5&bad=notanumber")
	if assert.NotNil(t, parseFloatParam(c, "v")) {
		assert.Equal(t, 1.5, *parseFloatParam(c, "v"))
	}
	assert.Nil(t, parseFloatParam(c, "bad"))
	assert.Nil(t, parseFloatParam(c, "missing"))
}

func TestParseIntParam(t *testing.T) {
	c := newTestContext(http.MethodGet, "/x?v=7&zero=0&bad=nope")
	assert.Equal(t, 7, parseIntParam(c, "v", 1))
	assert.Equal(t, 1, parseIntParam(c, "zero", 1))
	assert.Equal(t, 1, parseIntParam(c, "bad", 1))
	assert.Equal(t, 1, parseIntParam(c, "missing", 1))
}

func TestParseBoolParam(t *testing.T) {
	c := newTestContext(http.MethodGet, "/x?v=true&bad=nope")
	assert.True(t, parseBoolParam(c, "v", false))
	assert.False(t, parseBoolParam(c, "bad", false))
	assert.True(t, parseBoolParam(c, "missing", true))
}
