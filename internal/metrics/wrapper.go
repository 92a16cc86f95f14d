package metrics

import "github.com/prometheus/client_golang/prometheus"

// Interfaces for metrics so consumers can take instruments without
// depending on the prometheus types.
type MetricsCounter interface {
	Inc()
}

type MetricsGauge interface {
	Set(float64)
	Add(float64)
}

type MetricsHistogram interface {
	Observe(float64)
}

// MetricsWrapper provides a simple interface for services to use metrics
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) Predictions(riskLevel string) MetricsCounter {
	return &CounterWrapper{w.m.PredictionsTotal.WithLabelValues(riskLevel)}
}

func (w *MetricsWrapper) PredictionErrors() MetricsCounter {
	return &CounterWrapper{w.m.PredictionErrors}
}

func (w *MetricsWrapper) PredictionLatency() MetricsHistogram {
	return &HistogramWrapper{w.m.PredictionLatency}
}

func (w *MetricsWrapper) PredictionScores() MetricsHistogram {
	return &HistogramWrapper{w.m.PredictionScores}
}

func (w *MetricsWrapper) StubPredictions() MetricsCounter {
	return &CounterWrapper{w.m.StubPredictions}
}

func (w *MetricsWrapper) HistoryRecords() MetricsGauge {
	return &GaugeWrapper{w.m.HistoryRecords}
}

func (w *MetricsWrapper) RecordPrediction(riskLevel string, score, seconds float64, stub bool) {
	w.m.RecordPrediction(riskLevel, score, seconds, stub)
}

type CounterWrapper struct {
	c prometheus.Counter
}

func (cw *CounterWrapper) Inc() {
	cw.c.Inc()
}

type GaugeWrapper struct {
	g prometheus.Gauge
}

func (gw *GaugeWrapper) Set(v float64) {
	gw.g.Set(v)
}

func (gw *GaugeWrapper) Add(v float64) {
	gw.g.Add(v)
}

type HistogramWrapper struct {
	h prometheus.Histogram
}

func (hw *HistogramWrapper) Observe(v float64) {
	hw.h.Observe(v)
}
