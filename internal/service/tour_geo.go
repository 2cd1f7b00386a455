package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/iliyamo/tour-booking/internal/apperror"
	"github.com/iliyamo/tour-booking/internal/model"
)

// Distance units accepted by the geo endpoints.
const (
	UnitMiles      = "mi"
	UnitKilometers = "km"
)

const msgLatLng = "Please specify latitude and longitude in the format lat,lng."

// metersPerUnit converts a radius to meters. 3963.2 mi and 6378.1 km both
// describe the same earth radius, so the two stay consistent.
var metersPerUnit = map[string]float64{
	UnitMiles:      6378100 / 3963.2,
	UnitKilometers: 1000,
}

// unitsPerMeter converts a distance in meters to the requested unit.
var unitsPerMeter = map[string]float64{
	UnitMiles:      0.000621371,
	UnitKilometers: 0.001,
}

// parseLatLng reads a "lat,lng" pair.
func parseLatLng(s string) (model.GeoPoint, error) {
	latS, lngS, ok := strings.Cut(s, ",")
	if !ok {
		return model.GeoPoint{}, apperror.Validation(msgLatLng)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latS), 64)
	if err != nil {
		return model.GeoPoint{}, apperror.Validation(msgLatLng)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngS), 64)
	if err != nil {
		return model.GeoPoint{}, apperror.Validation(msgLatLng)
	}
	p := model.GeoPoint{Lat: lat, Lng: lng}
	if !p.Valid() {
		return model.GeoPoint{}, apperror.Validation(msgLatLng)
	}
	return p, nil
}

func checkUnit(unit string) error {
	if _, ok := unitsPerMeter[unit]; !ok {
		return apperror.Validation("Unit must be either mi or km")
	}
	return nil
}

// ToursWithin returns the tours starting within distance units of latlng.
func (s *TourService) ToursWithin(ctx context.Context, distance, latlng, unit string) ([]model.Tour, error) {
	if err := checkUnit(unit); err != nil {
		return nil, err
	}
	d, err := strconv.ParseFloat(distance, 64)
	if err != nil || d <= 0 {
		return nil, apperror.Validation("Distance must be a positive number")
	}
	center, err := parseLatLng(latlng)
	if err != nil {
		return nil, err
	}
	tours, err := s.Tours.Within(ctx, center.Lat, center.Lng, d*metersPerUnit[unit])
	if err != nil {
		return nil, err
	}
	if tours == nil {
		tours = []model.Tour{}
	}
	return tours, nil
}

// Distances returns how far every located tour starts from latlng, nearest
// first, in unit.
func (s *TourService) Distances(ctx context.Context, latlng, unit string) ([]model.TourDistance, error) {
	if err := checkUnit(unit); err != nil {
		return nil, err
	}
	from, err := parseLatLng(latlng)
	if err != nil {
		return nil, err
	}
	out, err := s.Tours.Distances(ctx, from.Lat, from.Lng)
	if err != nil {
		return nil, err
	}
	mul := unitsPerMeter[unit]
	for i := range out {
		out[i].Distance *= mul
	}
	if out == nil {
		out = []model.TourDistance{}
	}
	return out, nil
}
