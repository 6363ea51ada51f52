// Command tracedemo drives a tracehub Agent against a synthetic workload,
// the way smash and similar tools under enterprise/server/cmd drive a real
// service: flag-configured, run for a fixed duration, then report.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/buildbuddy-io/tracehub/server/tracing"
	"github.com/buildbuddy-io/tracehub/server/util/log"
)

var (
	outputDir    = flag.String("tracehub.output_dir", ".", "Directory node_trace.log.N files are written into.")
	runDuration  = flag.Duration("tracehub.run_duration", 5*time.Second, "How long to generate synthetic trace events for.")
	workers      = flag.Int("tracehub.workers", 4, "Number of concurrent goroutines emitting trace events.")
	categoryName = flag.String("tracehub.category", "v8", "Category group name synthetic events are tagged with.")
)

func main() {
	flag.Parse()

	reg := prometheus.NewRegistry()
	agent := tracing.NewAgent(*outputDir, reg)

	if err := agent.Start(nil); err != nil {
		log.Fatalf("tracedemo: starting agent: %s", err)
	}

	ctrl := agent.Controller()
	groupFlag := ctrl.GetGroupFlag(*categoryName)

	stop := make(chan struct{})
	done := make(chan struct{})
	for i := 0; i < *workers; i++ {
		go func(worker int) {
			defer func() { done <- struct{}{} }()
			r := rand.New(rand.NewSource(int64(worker) + 1))
			for {
				select {
				case <-stop:
					return
				default:
				}
				h := ctrl.AddEvent(tracing.PhaseComplete, groupFlag, "synthetic.work", "", 0, 0, 0, int(tracing.EnabledForRecording))
				time.Sleep(time.Duration(r.Intn(200)) * time.Microsecond)
				ctrl.UpdateDuration(h)
			}
		}(i)
	}

	time.Sleep(*runDuration)
	close(stop)
	for i := 0; i < *workers; i++ {
		<-done
	}

	drained := agent.Stop()
	fmt.Printf("tracedemo: drained %d events to %s\n", drained, *outputDir)
}
