package domain

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// stateCenter is used for ZIP codes without a known coordinate.
var stateCenter = Coordinates{Lat: 40.0583, Lon: -74.4057}

var zipCoordinates = map[string]Coordinates{
	"08901": {Lat: 40.4862, Lon: -74.4518}, // New Brunswick
	"07960": {Lat: 40.7968, Lon: -74.4821}, // Morristown
	"08540": {Lat: 40.3573, Lon: -74.6672}, // Princeton
	"07302": {Lat: 40.7178, Lon: -74.0431}, // Jersey City
	"08002": {Lat: 39.8654, Lon: -75.0357}, // Cherry Hill
}

// Locate returns the coordinates for a ZIP code and whether it was known.
// Unknown ZIP codes resolve to the center of New Jersey.
func Locate(zip string) (Coordinates, bool) {
	c, ok := zipCoordinates[zip]
	if !ok {
		return stateCenter, false
	}
	return c, true
}
