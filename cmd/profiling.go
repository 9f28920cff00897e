package cmd

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/spiffcs/firstissue/internal/log"
)

// Profiler manages CPU, memory, and trace profiling for long searches and
// watch sessions. Empty paths disable the corresponding profile.
type Profiler struct {
	cpuPath   string
	memPath   string
	tracePath string

	cpuFile   *os.File
	traceFile *os.File
}

// NewProfiler creates a profiler writing to the given paths.
func NewProfiler(cpuPath, memPath, tracePath string) *Profiler {
	return &Profiler{cpuPath: cpuPath, memPath: memPath, tracePath: tracePath}
}

// Start begins CPU profiling and execution tracing if configured.
func (p *Profiler) Start() error {
	if p.cpuPath != "" {
		f, err := os.Create(p.cpuPath)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		p.cpuFile = f
	}

	if p.tracePath != "" {
		f, err := os.Create(p.tracePath)
		if err != nil {
			p.stopCPU()
			return fmt.Errorf("could not create trace: %w", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			p.stopCPU()
			return fmt.Errorf("could not start trace: %w", err)
		}
		p.traceFile = f
	}
	return nil
}

// Stop ends all profiling and writes the heap profile if configured.
func (p *Profiler) Stop() {
	if p.traceFile != nil {
		trace.Stop()
		closeProfile("trace", p.traceFile)
		p.traceFile = nil
	}
	p.stopCPU()

	if p.memPath == "" {
		return
	}
	f, err := os.Create(p.memPath)
	if err != nil {
		log.Warn("could not create memory profile", "error", err)
		return
	}
	defer closeProfile("memory profile", f)
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Warn("could not write memory profile", "error", err)
	}
}

func (p *Profiler) stopCPU() {
	if p.cpuFile == nil {
		return
	}
	pprof.StopCPUProfile()
	closeProfile("CPU profile", p.cpuFile)
	p.cpuFile = nil
}

func closeProfile(name string, f *os.File) {
	if err := f.Close(); err != nil {
		log.Warn("could not close "+name, "error", err)
	}
}
