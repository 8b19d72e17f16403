package timeline

import (
	"fmt"
	"math"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type parquetRow struct {
	TimestampMS  int64   `parquet:"name=timestamp_ms, type=INT64"`
	Time         string  `parquet:"name=time, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Latitude     float64 `parquet:"name=latitude, type=DOUBLE"`
	Longitude    float64 `parquet:"name=longitude, type=DOUBLE"`
	HeartRateBPM int32   `parquet:"name=heart_rate_bpm, type=INT32"`
	CadenceSPM   float64 `parquet:"name=cadence_spm, type=DOUBLE"`
	HasPosition  bool    `parquet:"name=has_position, type=BOOLEAN"`
	HasCadence   bool    `parquet:"name=has_cadence, type=BOOLEAN"`
}

// WriteParquet writes the timeline to path as a Snappy-compressed parquet
// file, one row per entry. Missing coordinates and cadence are written as NaN.
func WriteParquet(path string, t *Timeline) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 1)
	if err != nil {
		fw.Close()
		return fmt.Errorf("creating parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, s := range t.Samples() {
		row := parquetRow{
			TimestampMS: s.Timestamp,
			Time:        s.Time,
			Latitude:    math.NaN(),
			Longitude:   math.NaN(),
			CadenceSPM:  math.NaN(),
		}
		if s.HasPosition() {
			lat, latErr := s.Latitude.Float()
			lon, lonErr := s.Longitude.Float()
			if latErr == nil && lonErr == nil {
				row.Latitude, row.Longitude = lat, lon
				row.HasPosition = true
			}
		}
		if s.HeartRate != nil {
			row.HeartRateBPM = int32(*s.HeartRate)
		}
		if s.Cadence != nil {
			if c, err := s.Cadence.Float(); err == nil {
				row.CadenceSPM = c
				row.HasCadence = true
			}
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			fw.Close()
			return fmt.Errorf("writing row %d: %w", s.Timestamp, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("finishing parquet: %w", err)
	}
	return fw.Close()
}
