package enrichment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	body string
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return "", f.err
	}
	return f.body, nil
}

type fakeBrowser struct {
	html  string
	err   error
	calls int
}

func (b *fakeBrowser) Render(_ context.Context, _ string) (string, error) {
	b.calls++
	if b.err != nil {
		return "", b.err
	}
	return b.html, nil
}

type fakeExtractor struct {
	fields map[string]string
	err    error
}

func (e *fakeExtractor) Extract(_ context.Context, _ string) (map[string]string, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.fields, nil
}

func TestDetectPortalType(t *testing.T) {
	assert.Equal(t, PortalIdoxPublicAccess, DetectPortalType("https://publicaccess.southwark.gov.uk/online-applications/details?id=1"))
	assert.Equal(t, PortalCustom, DetectPortalType("https://planning.london.gov.uk/apps/1"))
	assert.Equal(t, PortalUnknown, DetectPortalType("https://example-council.gov.uk/planning/1"))
}

func TestValidateField_RejectsNAPatterns(t *testing.T) {
	for _, na := range []string{"N/A", "not available", "none", "unknown", "  ", "--"} {
		_, ok := validateField("applicant name", na)
		assert.False(t, ok, "expected %q to be rejected", na)
	}
}

func TestValidateField_RejectsEchoedLabelAndMarkup(t *testing.T) {
	_, ok := validateField("applicant name", "Applicant Name")
	assert.False(t, ok)

	_, ok = validateField("ward", "<script>alert(1)</script>")
	assert.False(t, ok)
}

func TestValidateField_RejectsLengthAndCharRatioViolations(t *testing.T) {
	_, ok := validateField("ward", "A")
	assert.False(t, ok, "too short")

	long := ""
	for i := 0; i < 210; i++ {
		long += "a"
	}
	_, ok = validateField("ward", long)
	assert.False(t, ok, "too long")

	_, ok = validateField("ward", "###@@@!!!$$$")
	assert.False(t, ok, "too much punctuation")
}

func TestValidateField_AcceptsPlausibleValue(t *testing.T) {
	value, ok := validateField("applicant name", "  Jane Smith  ")
	assert.True(t, ok)
	assert.Equal(t, "Jane Smith", value)
}

const idoxTableHTML = `
<html><body><table>
<tr><th>Applicant Name:</th><td>Jane Smith</td></tr>
<tr><th>Agent Name:</th><td>Acme Planning Consultants</td></tr>
<tr><th>Ward:</th><td>Riverside</td></tr>
<tr><th>Decision Date:</th><td>N/A</td></tr>
</table></body></html>`

func TestExtractIdox_ParsesTableAndValidates(t *testing.T) {
	ft := &fakeFetcher{body: idoxTableHTML}
	e := NewEnricher(ft, nil, nil)

	result, err := e.Enrich(context.Background(), "https://publicaccess.example.gov.uk/online-applications/details?id=1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", result.ApplicantName)
	assert.Equal(t, "Acme Planning Consultants", result.AgentName)
	assert.Equal(t, "Riverside", result.Ward)
	assert.Empty(t, result.DecidedDate)
	assert.Len(t, result.Warnings, 1)
	assert.Equal(t, methodIdoxStaticHTML, result.ExtractionMethod)
	assert.Contains(t, ft.urls[0], "activeTab=details")
}

const customDdHTML = `<html><body><dl>
<dt>Applicant</dt><dd>John Doe</dd>
<dt>Agent</dt><dd>Example Agents Ltd</dd>
</dl></body></html>`

func TestExtractCustom_ParsesDtDdPairs(t *testing.T) {
	ft := &fakeFetcher{body: customDdHTML}
	e := NewEnricher(ft, nil, nil)

	result, err := e.Enrich(context.Background(), "https://planning.london.gov.uk/apps/42")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", result.ApplicantName)
	assert.Equal(t, "Example Agents Ltd", result.AgentName)
	assert.Equal(t, methodCustomStatic, result.ExtractionMethod)
}

func TestExtractUnknown_FirstCallRendersHeadlessThenLearnsPattern(t *testing.T) {
	fb := &fakeBrowser{html: "<html>rendered</html>"}
	fx := &fakeExtractor{fields: map[string]string{"applicant_name": "Jane Smith", "ward": "Riverside"}}
	ft := &fakeFetcher{}
	e := NewEnricher(ft, fb, fx)

	result, err := e.Enrich(context.Background(), "https://council-x.gov.uk/planning/1")
	require.NoError(t, err)
	assert.Equal(t, 1, fb.calls)
	assert.Empty(t, ft.urls)
	assert.Equal(t, "Jane Smith", result.ApplicantName)
	assert.Equal(t, methodHeadlessLLM, result.ExtractionMethod)

	_, err = e.Enrich(context.Background(), "https://council-x.gov.uk/planning/2")
	require.NoError(t, err)
	assert.Equal(t, 1, fb.calls, "second call to the same host should skip headless rendering")
	assert.Len(t, ft.urls, 1)
}

func TestComputeConfidence_PenalizesWarningsAndRewardsFields(t *testing.T) {
	base := computeConfidence(methodIdoxStaticHTML, map[string]string{}, nil)
	assert.Equal(t, 0.8, base)

	withFields := computeConfidence(methodIdoxStaticHTML, map[string]string{"applicant_name": "x", "ward": "y"}, nil)
	assert.InDelta(t, 1.0, withFields, 1e-9)

	withWarning := computeConfidence(methodHeadlessLLM, map[string]string{}, []string{"rejected value"})
	assert.InDelta(t, 0.6, withWarning, 1e-9)
}
