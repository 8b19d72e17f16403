package models

import "encoding/json"

// SummaryFieldPrefix is the column prefix used by most fields in the
// exercise summary CSV.
const SummaryFieldPrefix = "com.samsung.health.exercise."

// Summary CSV column names, without SummaryFieldPrefix. total_calorie is the
// one column exported without the prefix.
const (
	FieldDataUUID      = "datauuid"
	FieldStartTime     = "start_time"
	FieldTotalCalorie  = "total_calorie"
	FieldDuration      = "duration"
	FieldExerciseType  = "exercise_type"
	FieldMeanHeartRate = "mean_heart_rate"
	FieldMaxHeartRate  = "max_heart_rate"
	FieldMeanSpeed     = "mean_speed"
	FieldMaxSpeed      = "max_speed"
	FieldMeanCadence   = "mean_cadence"
	FieldMaxCadence    = "max_cadence"
	FieldDistance      = "distance"
	FieldLocationData  = "location_data"
	FieldLiveData      = "live_data"
)

// SummaryFields lists every summary column the converter reads, in export order.
var SummaryFields = []string{
	FieldDataUUID,
	FieldStartTime,
	FieldTotalCalorie,
	FieldDuration,
	FieldExerciseType,
	FieldMeanHeartRate,
	FieldMaxHeartRate,
	FieldMeanSpeed,
	FieldMaxSpeed,
	FieldMeanCadence,
	FieldMaxCadence,
	FieldDistance,
	FieldLocationData,
	FieldLiveData,
}

// SummaryColumn returns the CSV header name for a summary field.
func SummaryColumn(field string) string {
	if field == FieldTotalCalorie {
		return field
	}
	return SummaryFieldPrefix + field
}

// SummaryFromRow builds an ActivitySummary from a row keyed by field name
// (prefix already stripped). Missing keys read as empty strings.
func SummaryFromRow(row map[string]string) ActivitySummary {
	get := func(k string) string { return row[k] }
	return ActivitySummary{
		ID:              get(FieldDataUUID),
		StartTime:       get(FieldStartTime),
		Duration:        Decimal(get(FieldDuration)),
		TotalCalories:   Decimal(get(FieldTotalCalorie)),
		ExerciseType:    get(FieldExerciseType),
		MeanHeartRate:   Decimal(get(FieldMeanHeartRate)),
		MaxHeartRate:    Decimal(get(FieldMaxHeartRate)),
		MeanSpeed:       Decimal(get(FieldMeanSpeed)),
		MaxSpeed:        Decimal(get(FieldMaxSpeed)),
		MeanCadence:     Decimal(get(FieldMeanCadence)),
		MaxCadence:      Decimal(get(FieldMaxCadence)),
		Distance:        Decimal(get(FieldDistance)),
		HasLocationData: get(FieldLocationData) != "",
		HasLiveData:     get(FieldLiveData) != "",
	}
}

// AuxiliarySuffix names the per-activity JSON files next to the summary CSV.
const (
	LiveDataSuffix     = "com.samsung.health.exercise.live_data"
	LocationDataSuffix = "com.samsung.health.exercise.location_data"
)

// LocationDataRecord is one element of a location_data JSON file.
type LocationDataRecord struct {
	StartTime int64        `json:"start_time"`
	Latitude  *json.Number `json:"latitude,omitempty"`
	Longitude *json.Number `json:"longitude,omitempty"`
	Altitude  *float64     `json:"altitude,omitempty"`
	Accuracy  *float64     `json:"accuracy,omitempty"`
}

// Sample converts the record to a LocationSample, keeping the coordinate
// literals as exported.
func (r LocationDataRecord) Sample() LocationSample {
	return LocationSample{
		Timestamp: r.StartTime,
		Latitude:  decimalPtr(r.Latitude),
		Longitude: decimalPtr(r.Longitude),
	}
}

// LiveDataRecord is one element of a live_data JSON file. Heart rate is
// exported as a float even though it is a whole bpm value.
type LiveDataRecord struct {
	StartTime int64        `json:"start_time"`
	HeartRate *float64     `json:"heart_rate,omitempty"`
	Cadence   *json.Number `json:"cadence,omitempty"`
	Speed     *float64     `json:"speed,omitempty"`
	Distance  *float64     `json:"distance,omitempty"`
}

// Sample converts the record to a LiveSample, truncating heart rate to whole bpm.
func (r LiveDataRecord) Sample() LiveSample {
	s := LiveSample{
		Timestamp: r.StartTime,
		Cadence:   decimalPtr(r.Cadence),
	}
	if r.HeartRate != nil {
		hr := int(*r.HeartRate)
		s.HeartRate = &hr
	}
	return s
}

func decimalPtr(n *json.Number) *Decimal {
	if n == nil {
		return nil
	}
	d := Decimal(*n)
	return &d
}
