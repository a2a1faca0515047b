package world

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics - метрики стриминга, построения мешей и тиков.
//
// * voxel_regions_active / _pooled / _preserved, voxel_loads_pending / _inflight - gauge
// * voxel_region_loads_total{result} - counter (generated, restored, aborted, failed)
// * voxel_region_load_duration_seconds, voxel_mesh_build_duration_seconds,
//   voxel_tick_duration_seconds - histogram
type Metrics struct {
	ActiveRegions    prometheus.Gauge
	PooledRegions    prometheus.Gauge
	PreservedRegions prometheus.Gauge
	PendingLoads     prometheus.Gauge
	InFlightLoads    prometheus.Gauge

	RegionLoads        *prometheus.CounterVec
	RegionUnloads      prometheus.Counter
	RegionLoadDuration prometheus.Histogram

	MeshBuilds        prometheus.Counter
	MeshCoalesced     prometheus.Counter
	MeshStale         prometheus.Counter
	MeshBuildDuration prometheus.Histogram

	TickDuration  prometheus.Histogram
	TickProcessed prometheus.Counter
	TickChanged   prometheus.Counter
	TickRedrawn   prometheus.Counter
}

const metricsNamespace = "voxel"

// NewMetrics создаёт метрики и регистрирует их в reg.
// reg == nil - метрики работают, но никуда не экспортируются (тесты, несколько миров в процессе).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveRegions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "regions_active",
			Help:      "Количество регионов в active (включая загружающиеся).",
		}),
		PooledRegions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "regions_pooled",
			Help:      "Свободные хранилища в пуле.",
		}),
		PreservedRegions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "regions_preserved",
			Help:      "Выгруженные регионы, сохранённые в памяти.",
		}),
		PendingLoads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "loads_pending",
			Help:      "Регионы в очереди на загрузку.",
		}),
		InFlightLoads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "loads_inflight",
			Help:      "Выполняющиеся загрузки регионов.",
		}),
		RegionLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "region_loads_total",
			Help:      "Завершённые загрузки регионов по результату.",
		}, []string{"result"}),
		RegionUnloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "region_unloads_total",
			Help:      "Выгрузки регионов.",
		}),
		RegionLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "region_load_duration_seconds",
			Help:      "Длительность загрузки региона от начала до активации.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		MeshBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "mesh_builds_total",
			Help:      "Завершённые проходы построения меша.",
		}),
		MeshCoalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "mesh_requests_coalesced_total",
			Help:      "Запросы перестроения, схлопнутые с уже идущим построением.",
		}),
		MeshStale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "mesh_requests_stale_total",
			Help:      "Фоновые перестроения, пропущенные из-за смены загрузки региона.",
		}),
		MeshBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "mesh_build_duration_seconds",
			Help:      "Длительность одного прохода построения меша.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "tick_duration_seconds",
			Help:      "Длительность тика распространения обновлений блоков.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		TickProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tick_blocks_processed_total",
			Help:      "Блоки, обработанные в тиках.",
		}),
		TickChanged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tick_blocks_changed_total",
			Help:      "Обработанные блоки, правило которых изменило мир.",
		}),
		TickRedrawn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tick_cells_redrawn_total",
			Help:      "RenderCell, перестроенные по итогам тиков.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ActiveRegions, m.PooledRegions, m.PreservedRegions, m.PendingLoads, m.InFlightLoads,
			m.RegionLoads, m.RegionUnloads, m.RegionLoadDuration,
			m.MeshBuilds, m.MeshCoalesced, m.MeshStale, m.MeshBuildDuration,
			m.TickDuration, m.TickProcessed, m.TickChanged, m.TickRedrawn,
		)
	}
	return m
}
