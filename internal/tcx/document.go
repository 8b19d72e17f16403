// Package tcx builds and serializes Garmin Training Center (TCX) documents.
package tcx

import (
	"encoding/xml"
	"math"
	"strconv"
	"strings"

	"github.com/meltforce/shealth2tcx/internal/models"
)

// SchemaVersion is written to the root version attribute.
const SchemaVersion = "1.1"

// TrainingCenterDatabase is the document root.
type TrainingCenterDatabase struct {
	XMLName        xml.Name   `xml:"TrainingCenterDatabase"`
	Xmlns          string     `xml:"xmlns,attr"`
	XmlnsNs2       string     `xml:"xmlns:ns2,attr"`
	XmlnsNs3       string     `xml:"xmlns:ns3,attr"`
	XmlnsNs4       string     `xml:"xmlns:ns4,attr"`
	XmlnsNs5       string     `xml:"xmlns:ns5,attr"`
	XmlnsXsi       string     `xml:"xmlns:xsi,attr"`
	SchemaLocation string     `xml:"xsi:schemaLocation,attr"`
	Version        string     `xml:"version,attr"`
	Activities     Activities `xml:"Activities"`
}

// Activities wraps the activity list.
type Activities struct {
	Activity []Activity `xml:"Activity"`
}

// Activity is one exported exercise. ID is the lap start time.
type Activity struct {
	Sport Sport  `xml:"Sport,attr"`
	ID    string `xml:"Id"`
	Lap   Lap    `xml:"Lap"`
}

// Lap fields are in TCX schema order. Optional elements are pointers or
// omitempty strings so that absent values produce no element at all.
type Lap struct {
	StartTime           string         `xml:"StartTime,attr"`
	TotalTimeSeconds    *Number        `xml:"TotalTimeSeconds,omitempty"`
	DistanceMeters      string         `xml:"DistanceMeters,omitempty"`
	Calories            *int           `xml:"Calories,omitempty"`
	AverageHeartRateBpm *HeartRateBpm  `xml:"AverageHeartRateBpm,omitempty"`
	MaximumHeartRateBpm *HeartRateBpm  `xml:"MaximumHeartRateBpm,omitempty"`
	Intensity           string         `xml:"Intensity"`
	TriggerMethod       string         `xml:"TriggerMethod"`
	Track               *Track         `xml:"Track,omitempty"`
	Extensions          *LapExtensions `xml:"Extensions,omitempty"`
}

// HeartRateBpm is a whole beats-per-minute value.
type HeartRateBpm struct {
	Value int `xml:"Value"`
}

// LapExtensions holds the ActivityExtension (ns3) LX block.
type LapExtensions struct {
	LX LapExtension `xml:"ns3:LX"`
}

// LapExtension carries the lap averages TCX has no core element for.
type LapExtension struct {
	AvgSpeed      string `xml:"ns3:AvgSpeed,omitempty"`
	AvgRunCadence string `xml:"ns3:AvgRunCadence,omitempty"`
}

// Track is the ordered trackpoint list of a lap.
type Track struct {
	Trackpoints []*Trackpoint `xml:"Trackpoint"`
}

// Trackpoint is one timeline entry. Coordinates and cadence are written as
// they were spelled in the export.
type Trackpoint struct {
	Time         string        `xml:"Time"`
	Position     *Position     `xml:"Position,omitempty"`
	HeartRateBpm *HeartRateBpm `xml:"HeartRateBpm,omitempty"`
	Cadence      *Literal      `xml:"Cadence,omitempty"`
}

// Position is a GPS fix in decimal degrees.
type Position struct {
	LatitudeDegrees  Literal `xml:"LatitudeDegrees"`
	LongitudeDegrees Literal `xml:"LongitudeDegrees"`
}

// Number is a float written in shortest round-trip form with a trailing
// ".0" on whole values (1800 -> "1800.0", 52.5 -> "52.5").
type Number float64

// MarshalText implements encoding.TextMarshaler.
func (n Number) MarshalText() ([]byte, error) {
	return []byte(formatNumber(float64(n))), nil
}

// Literal is a number taken from the export's JSON. Integer spellings are
// written unchanged ("80"); anything else is written like Number ("80.0",
// "52.5").
type Literal string

// LiteralOf normalizes an exported numeric literal.
func LiteralOf(d models.Decimal) Literal {
	s := d.String()
	if !strings.ContainsAny(s, ".eE") {
		return Literal(s)
	}
	f, err := d.Float()
	if err != nil {
		return Literal(s)
	}
	return Literal(formatNumber(f))
}

func formatNumber(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}
