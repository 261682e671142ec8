package domain

// Metric is the vector distance metric. Lower distance always means more similar.
type Metric string

// Supported distance metrics.
const (
	MetricCosine Metric = "cosine"
	MetricL2     Metric = "l2"
)

// IsValid checks if the metric is one of the supported values.
func (m Metric) IsValid() bool {
	return m == MetricCosine || m == MetricL2
}

// VectorConfig holds embedding space settings shared by the stores and the
// query embedder. Passed explicitly at construction, never read from globals,
// so multiple store instances coexist safely.
type VectorConfig struct {
	Dimensions int
	Metric     Metric
}

// DefaultVectorConfig returns the default configuration tuned for
// text-embedding-3-small abstract embeddings.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Dimensions: 1536,
		Metric:     MetricCosine,
	}
}
