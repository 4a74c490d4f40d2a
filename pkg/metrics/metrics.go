package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shouni/go-link-audit/pkg/linkcheck"
)

// Recorder は、リンクチェックの結果を Prometheus メトリクスとして記録します。
// スキャンごとに専用の Registry を持ちます。
type Recorder struct {
	registry *prometheus.Registry
	links    *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewRecorder は新しい Recorder を生成します。
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		links: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "link_audit_links_total",
			Help: "Number of checked links by status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "link_audit_check_duration_seconds",
			Help:    "Time taken to check a single link.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	r.registry.MustRegister(r.links, r.duration)
	return r
}

// ObserveLink はチェック済みの Link を記録します。
func (r *Recorder) ObserveLink(link linkcheck.Link, elapsed time.Duration) {
	r.links.WithLabelValues(link.Status.Kind().String()).Inc()
	// チェックしていないリンクは所要時間に含めない
	if link.Status.Kind() != linkcheck.KindSkipped {
		r.duration.Observe(elapsed.Seconds())
	}
}

// Registry は記録先の Registry を返します。
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile は node_exporter の textfile collector 形式でメトリクスを書き出します。
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("メトリクスファイルの書き込みエラー (%s): %w", path, err)
	}
	return nil
}
