package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Drag lifecycle metrics
	DragsTotal   *prometheus.CounterVec
	DragDuration *prometheus.HistogramVec
	DropsTotal   *prometheus.CounterVec

	// Hit-test metrics
	HitTestResolutions *prometheus.CounterVec
	SnapshotSize       prometheus.Histogram

	// Panel metrics
	PanelsOpen   prometheus.Gauge
	PanelsTotal  prometheus.Counter
	PanelsClosed prometheus.Counter

	// Window metrics
	WindowsFloating prometheus.Gauge

	// Layout metrics
	LayoutMutations *prometheus.CounterVec
	LayoutsSaved    prometheus.Counter
	LayoutsRestored prometheus.Counter
	RestoreWarnings prometheus.Counter

	// Operation gate metrics
	OperationRejects *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values for JSON API
type Snapshot struct {
	TotalDrags      int64
	TotalDrops      int64
	OpenPanels      int64
	FloatingWindows int64
	TotalMutations  int64
}

// NewMetrics creates a new metrics collector registered on reg. Pass
// prometheus.DefaultRegisterer outside tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		// Drag lifecycle metrics
		DragsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dock_drags_total",
				Help: "Total number of drag operations started",
			},
			[]string{"kind"},
		),
		DragDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dock_drag_duration_seconds",
				Help:    "Drag duration from start to drop or cancel",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"kind", "outcome"},
		),
		DropsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dock_drops_total",
				Help: "Total number of completed drops",
			},
			[]string{"position"},
		),

		// Hit-test metrics
		HitTestResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dock_hittest_resolutions_total",
				Help: "Total number of pointer resolutions against a snapshot",
			},
			[]string{"result"},
		),
		SnapshotSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dock_hittest_snapshot_targets",
				Help:    "Number of targets captured per drag snapshot",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
			},
		),

		// Panel metrics
		PanelsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dock_panels_open",
				Help: "Number of panels currently in the layout",
			},
		),
		PanelsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dock_panels_total",
				Help: "Total number of panels ever added",
			},
		),
		PanelsClosed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dock_panels_closed_total",
				Help: "Total number of panels closed",
			},
		),

		// Window metrics
		WindowsFloating: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dock_windows_floating",
				Help: "Number of floating windows",
			},
		),

		// Layout metrics
		LayoutMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dock_layout_mutations_total",
				Help: "Total number of layout tree mutations",
			},
			[]string{"operation", "status"},
		),
		LayoutsSaved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dock_layouts_saved_total",
				Help: "Total number of layouts saved",
			},
		),
		LayoutsRestored: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dock_layouts_restored_total",
				Help: "Total number of layouts restored",
			},
		),
		RestoreWarnings: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dock_restore_warnings_total",
				Help: "Total number of panels skipped during restore",
			},
		),

		// Operation gate metrics
		OperationRejects: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dock_operation_rejects_total",
				Help: "Operations rejected because another was in progress",
			},
			[]string{"event"},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dock_uptime_seconds",
				Help: "Manager uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordDragStart records the start of a drag operation
func (m *Metrics) RecordDragStart(kind string, snapshotTargets int) {
	m.DragsTotal.WithLabelValues(kind).Inc()
	m.SnapshotSize.Observe(float64(snapshotTargets))

	m.mu.Lock()
	m.snapshot.TotalDrags++
	m.mu.Unlock()
}

// RecordDragEnd records a drag finishing with the given outcome
func (m *Metrics) RecordDragEnd(kind, outcome string, duration time.Duration) {
	m.DragDuration.WithLabelValues(kind, outcome).Observe(duration.Seconds())
}

// RecordDrop records a completed drop at a resolved position
func (m *Metrics) RecordDrop(position string) {
	m.DropsTotal.WithLabelValues(position).Inc()

	m.mu.Lock()
	m.snapshot.TotalDrops++
	m.mu.Unlock()
}

// RecordHitTest records one pointer resolution
func (m *Metrics) RecordHitTest(result string) {
	m.HitTestResolutions.WithLabelValues(result).Inc()
}

// RecordMutation records a layout tree mutation
func (m *Metrics) RecordMutation(operation, status string) {
	m.LayoutMutations.WithLabelValues(operation, status).Inc()

	m.mu.Lock()
	m.snapshot.TotalMutations++
	m.mu.Unlock()
}

// RecordReject records an operation rejected by the state gate
func (m *Metrics) RecordReject(event string) {
	m.OperationRejects.WithLabelValues(event).Inc()
}

// SetPanelsOpen sets the number of panels in the layout
func (m *Metrics) SetPanelsOpen(count int) {
	m.PanelsOpen.Set(float64(count))
	m.mu.Lock()
	m.snapshot.OpenPanels = int64(count)
	m.mu.Unlock()
}

// IncPanelsTotal increments the panels created counter
func (m *Metrics) IncPanelsTotal() {
	m.PanelsTotal.Inc()
}

// IncPanelsClosed increments the panels closed counter
func (m *Metrics) IncPanelsClosed() {
	m.PanelsClosed.Inc()
}

// SetWindowsFloating sets the number of floating windows
func (m *Metrics) SetWindowsFloating(count int) {
	m.WindowsFloating.Set(float64(count))
	m.mu.Lock()
	m.snapshot.FloatingWindows = int64(count)
	m.mu.Unlock()
}

// IncLayoutsSaved increments the layouts saved counter
func (m *Metrics) IncLayoutsSaved() {
	m.LayoutsSaved.Inc()
}

// IncLayoutsRestored increments the layouts restored counter
func (m *Metrics) IncLayoutsRestored() {
	m.LayoutsRestored.Inc()
}

// AddRestoreWarnings adds skipped panels from one restore
func (m *Metrics) AddRestoreWarnings(n int) {
	m.RestoreWarnings.Add(float64(n))
}

// GetSnapshot returns current metric values for the JSON API
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
