package search

// DefaultLocationCenters is the built-in named-location registry
// LocationStats resolves slugs against, carried over from the
// original service's LOCATION_CENTERS table.
func DefaultLocationCenters() []LocationCenter {
	return []LocationCenter{
		{Slug: "london", Name: "London", Lat: 51.5074, Lon: -0.1278},
		{Slug: "manchester", Name: "Manchester", Lat: 53.4808, Lon: -2.2426},
		{Slug: "birmingham", Name: "Birmingham", Lat: 52.4862, Lon: -1.8904},
		{Slug: "liverpool", Name: "Liverpool", Lat: 53.4084, Lon: -2.9916},
		{Slug: "bristol", Name: "Bristol", Lat: 51.4545, Lon: -2.5879},
		{Slug: "bournemouth", Name: "Bournemouth", Lat: 50.7192, Lon: -1.8808},
		{Slug: "poole", Name: "Poole", Lat: 50.7150, Lon: -1.9872},
		{Slug: "leeds", Name: "Leeds", Lat: 53.8008, Lon: -1.5491},
		{Slug: "sheffield", Name: "Sheffield", Lat: 53.3811, Lon: -1.4701},
		{Slug: "edinburgh", Name: "Edinburgh", Lat: 55.9533, Lon: -3.1883},
		{Slug: "glasgow", Name: "Glasgow", Lat: 55.8642, Lon: -4.2518},
		{Slug: "cardiff", Name: "Cardiff", Lat: 51.4816, Lon: -3.1791},
		{Slug: "newcastle", Name: "Newcastle", Lat: 54.9783, Lon: -1.6178},
		{Slug: "nottingham", Name: "Nottingham", Lat: 52.9548, Lon: -1.1581},
		{Slug: "southampton", Name: "Southampton", Lat: 50.9097, Lon: -1.4044},
		{Slug: "brighton", Name: "Brighton", Lat: 50.8225, Lon: -0.1372},
		{Slug: "oxford", Name: "Oxford", Lat: 51.7520, Lon: -1.2577},
		{Slug: "cambridge", Name: "Cambridge", Lat: 52.2053, Lon: 0.1218},
		{Slug: "bath", Name: "Bath", Lat: 51.3811, Lon: -2.3590},
		{Slug: "york", Name: "York", Lat: 53.9600, Lon: -1.0873},
	}
}
