package transfer

import (
	"fmt"
	"math"
)

type Location struct {
	Latitude  float64 `yaml:"latitude" json:"latitude" groups:"basic"`
	Longitude float64 `yaml:"longitude" json:"longitude" groups:"basic"`
}

// NewLocation builds a Location from nullable coordinates, returning false when either side is missing or not a number
func NewLocation(lat *float64, lon *float64) (Location, bool) {
	if lat == nil || lon == nil {
		return Location{}, false
	}

	location := Location{Latitude: *lat, Longitude: *lon}

	return location, location.IsValid()
}

func (l Location) IsValid() bool {
	return !math.IsNaN(l.Latitude) && !math.IsNaN(l.Longitude) &&
		!math.IsInf(l.Latitude, 0) && !math.IsInf(l.Longitude, 0)
}

func (l Location) String() string {
	return fmt.Sprintf("%v,%v", l.Latitude, l.Longitude)
}

const (
	wgs84SemiMajorAxis = 6378137.0
	wgs84Flattening    = 1 / 298.257223563
	wgs84SemiMinorAxis = (1 - wgs84Flattening) * wgs84SemiMajorAxis

	meanEarthRadiusMeters = 6371008.8
)

// GeodesicDistanceKm returns the distance between two points on the WGS-84 ellipsoid using Vincenty's inverse formula.
// Falls back to the haversine distance for the rare near-antipodal pairs where the iteration does not converge.
func GeodesicDistanceKm(from Location, to Location) float64 {
	if from == to {
		return 0
	}

	L := degreesToRadians(to.Longitude - from.Longitude)
	U1 := math.Atan((1 - wgs84Flattening) * math.Tan(degreesToRadians(from.Latitude)))
	U2 := math.Atan((1 - wgs84Flattening) * math.Tan(degreesToRadians(to.Latitude)))
	sinU1, cosU1 := math.Sincos(U1)
	sinU2, cosU2 := math.Sincos(U2)

	lambda := L
	var sinSigma, cosSigma, sigma, cosSqAlpha, cos2SigmaM float64
	converged := false

	for i := 0; i < 200; i++ {
		sinLambda, cosLambda := math.Sincos(lambda)

		sinSigma = math.Sqrt(math.Pow(cosU2*sinLambda, 2) + math.Pow(cosU1*sinU2-sinU1*cosU2*cosLambda, 2))
		if sinSigma == 0 {
			return 0
		}
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)

		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cosSqAlpha = 1 - sinAlpha*sinAlpha

		cos2SigmaM = 0
		if cosSqAlpha != 0 {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cosSqAlpha
		}

		C := wgs84Flattening / 16 * cosSqAlpha * (4 + wgs84Flattening*(4-3*cosSqAlpha))
		previousLambda := lambda
		lambda = L + (1-C)*wgs84Flattening*sinAlpha*
			(sigma+C*sinSigma*(cos2SigmaM+C*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))

		if math.Abs(lambda-previousLambda) < 1e-12 {
			converged = true
			break
		}
	}

	if !converged {
		return HaversineDistanceKm(from, to)
	}

	uSq := cosSqAlpha * (wgs84SemiMajorAxis*wgs84SemiMajorAxis - wgs84SemiMinorAxis*wgs84SemiMinorAxis) /
		(wgs84SemiMinorAxis * wgs84SemiMinorAxis)
	A := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	B := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
	deltaSigma := B * sinSigma * (cos2SigmaM + B/4*(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
		B/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))

	return wgs84SemiMinorAxis * A * (sigma - deltaSigma) / 1000
}

// HaversineDistanceKm is the great-circle distance on a spherical earth
func HaversineDistanceKm(from Location, to Location) float64 {
	dLat := degreesToRadians(to.Latitude - from.Latitude)
	dLon := degreesToRadians(to.Longitude - from.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(from.Latitude))*math.Cos(degreesToRadians(to.Latitude))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return meanEarthRadiusMeters * c / 1000
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
