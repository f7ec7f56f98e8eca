package enrichment

import (
	"net/url"
	"regexp"
	"strings"
)

// PortalType identifies which applicant/agent extraction strategy a URL
// should use (§4.5.5).
type PortalType string

// Recognized portal types.
const (
	PortalIdoxPublicAccess PortalType = "idox_public_access"
	PortalCustom           PortalType = "custom"
	PortalUnknown          PortalType = "unknown"
)

var idoxPattern = regexp.MustCompile(`(?i)publicaccess\..*\.gov\.uk/online-applications`)

// customRegistry maps known custom-portal hosts to their PortalType name
// (§4.5.5: "host in known-custom registry"). Populated with the hosts
// seen across the UK planning-portal landscape; extend as new custom
// portals are onboarded.
var customRegistry = map[string]string{
	"planning.london.gov.uk": "custom",
	"idoxcloud.com":          "custom",
}

// DetectPortalType classifies docsURL per §4.5.5's three-way rule.
func DetectPortalType(docsURL string) PortalType {
	if idoxPattern.MatchString(docsURL) {
		return PortalIdoxPublicAccess
	}

	u, err := url.Parse(docsURL)
	if err == nil {
		host := strings.ToLower(u.Hostname())
		if _, ok := customRegistry[host]; ok {
			return PortalCustom
		}
	}

	return PortalUnknown
}
