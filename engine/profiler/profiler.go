package profiler

import (
	"log"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Stats is the summary computed at the end of each profiling interval.
type Stats struct {
	FPS         float64
	HeapMB      float64
	AllocRateMB float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
	SysMB       float64
	CPUPercent  float64
	RSSMB       float64

	// Per-frame averages of scene units rendered, culled off-screen and skipped as inactive.
	Rendered float64
	Culled   float64
	Inactive float64
}

// Profiler tracks frame rate, memory, process and scene statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	mu *sync.Mutex

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	rendered int
	culled   int
	inactive int

	now     func() time.Time
	proc    *process.Process
	quiet   bool
	last    Stats
	hasLast bool
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second. Process CPU and RSS are sampled through gopsutil
// when the current process can be inspected.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		mu:             &sync.Mutex{},
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
		now:            time.Now,
	}
	for _, option := range options {
		option(p)
	}
	p.lastTime = p.now()

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		p.proc = proc
		// Prime the CPU counters so the first interval reports a delta.
		_, _ = proc.Percent(0)
	} else {
		log.Printf("[Profiler] process stats unavailable: %v", err)
	}
	return p
}

// RecordFrame adds one frame's scene unit counts to the current interval.
//
// Parameters:
//   - rendered: units drawn this frame
//   - culled: active units skipped because they were off-screen
//   - inactive: units skipped because they were inactive
func (p *Profiler) RecordFrame(rendered, culled, inactive int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rendered += rendered
	p.culled += culled
	p.inactive += inactive
}

// Last returns the most recent interval summary.
//
// Returns:
//   - Stats: the summary
//   - bool: false until the first interval has elapsed
func (p *Profiler) Last() (Stats, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.hasLast
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory,
// process CPU and RSS, and the average scene unit counts per frame.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval || elapsed <= 0 {
		return false
	}

	frames := float64(p.frameCount)
	s := Stats{
		FPS:      frames / elapsed.Seconds(),
		Rendered: float64(p.rendered) / frames,
		Culled:   float64(p.culled) / frames,
		Inactive: float64(p.inactive) / frames,
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc: Bytes of allocated heap objects (live memory)
	// TotalAlloc: Cumulative bytes allocated for heap objects (increases forever, tracks churn)
	// Sys: Total bytes of memory obtained from the OS (actual process footprint)
	s.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	s.SysMB = float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	s.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	s.GCCount = gcCount
	if gcCount > 0 {
		// PauseNs is a circular buffer of last 256 GC pauses
		s.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > s.MaxPauseUs {
				s.MaxPauseUs = pause
			}
		}
	}

	if p.proc != nil {
		if cpu, err := p.proc.Percent(0); err == nil {
			s.CPUPercent = cpu
		}
		if mem, err := p.proc.MemoryInfo(); err == nil && mem != nil {
			s.RSSMB = float64(mem.RSS) / 1024 / 1024
		}
	}

	if !p.quiet {
		log.Printf("[Profiler] FPS: %.2f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB | CPU: %.1f%% | RSS: %.2f MB | Units: %.1f rendered, %.1f culled, %.1f inactive",
			s.FPS, s.HeapMB, s.AllocRateMB, s.GCCount, s.LastPauseUs, s.MaxPauseUs, s.SysMB, s.CPUPercent, s.RSSMB, s.Rendered, s.Culled, s.Inactive)
	}

	p.frameCount = 0
	p.rendered, p.culled, p.inactive = 0, 0, 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.last = s
	p.hasLast = true
	return true
}
