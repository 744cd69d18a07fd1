package weather

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedDocument is returned when a weather document is not a JSON object.
var ErrMalformedDocument = errors.New("malformed weather document")

// ExtractFields reads the model features out of a current-weather document.
//
// Absent or non-numeric fields default to 0. Precipitation prefers rain.3h and
// falls back to rain.1h. A document that is not a JSON object yields a zero
// snapshot together with ErrMalformedDocument so callers can log it.
func ExtractFields(doc []byte) (Snapshot, error) {
	var root map[string]any
	if err := json.Unmarshal(doc, &root); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if root == nil {
		return Snapshot{}, fmt.Errorf("%w: null document", ErrMalformedDocument)
	}

	var s Snapshot
	s.TempAvg, _ = lookupNumber(root, "main", "temp")
	s.TempMin, _ = lookupNumber(root, "main", "temp_min")
	s.TempMax, _ = lookupNumber(root, "main", "temp_max")

	if v, ok := lookupNumber(root, "rain", "3h"); ok {
		s.Precipitation = v
	} else if v, ok := lookupNumber(root, "rain", "1h"); ok {
		s.Precipitation = v
	}

	return s, nil
}

func lookupNumber(root map[string]any, section, field string) (float64, bool) {
	sec, ok := root[section].(map[string]any)
	if !ok {
		return 0, false
	}
	v, ok := sec[field].(float64)
	return v, ok
}

// Document builds a current-weather document in the OpenWeatherMap shape.
// Used by providers whose payload differs.
func Document(tempAvg, tempMin, tempMax, precipMM float64) ([]byte, error) {
	doc := map[string]any{
		"main": map[string]float64{
			"temp":     tempAvg,
			"temp_min": tempMin,
			"temp_max": tempMax,
		},
	}
	if precipMM > 0 {
		doc["rain"] = map[string]float64{"1h": precipMM}
	}
	return json.Marshal(doc)
}
