// Package types defines shared data types used across the extension.
package types

import "time"

// ClientKind distinguishes registry entries for the advisory options column.
type ClientKind string

const (
	KindEmbedding  ClientKind = "embedding"
	KindMultimodal ClientKind = "multimodal"
)

// Stats aggregates the outcome of one concurrent batch run. It exists only
// for the lifetime of a single call; nothing is persisted.
type Stats struct {
	Processed     int           `json:"total_processed"`
	Succeeded     int           `json:"successful"`
	Failed        int           `json:"failed"`
	TotalDuration time.Duration `json:"-"`
	AvgPerItem    time.Duration `json:"-"`
}

// TotalSeconds returns the wall-clock duration in seconds.
func (s Stats) TotalSeconds() float64 {
	return s.TotalDuration.Seconds()
}

// Throughput returns successful items per second, or 0 for an instant run.
func (s Stats) Throughput() float64 {
	secs := s.TotalDuration.Seconds()
	if secs == 0 {
		return 0
	}
	return float64(s.Succeeded) / secs
}

// Capabilities describes what a provider claims to support for multimodal
// inputs. Advisory only: dispatch always uses the hybrid
// vision-to-text-to-embedding pipeline regardless of these flags.
type Capabilities struct {
	SupportsImageEmbeddings bool     `json:"supports_image_embeddings"`
	SupportsMultimodalBatch bool     `json:"supports_multimodal_batch"`
	MaxBatchSize            int      `json:"max_batch_size"`
	SupportedFormats        []string `json:"supported_formats"`
}
