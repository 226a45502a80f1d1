// Command probecheck polls the focused-window probe and prints what it sees,
// to verify detection on a desktop before running the tracker.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/focuspulse/focuspulse/internal/logging"
	"github.com/focuspulse/focuspulse/pkg/detector"
	"github.com/focuspulse/focuspulse/pkg/integrations/hybrid"
	"github.com/focuspulse/focuspulse/pkg/probe"
)

func main() {
	name := flag.String("probe", "auto", "probe to test: auto, x11, wayland, darwin, windows")
	every := flag.Duration("every", 2*time.Second, "sampling interval")
	total := flag.Duration("for", 30*time.Second, "how long to sample")
	titles := flag.Bool("titles", true, "include window titles in labels")
	verbose := flag.Bool("v", false, "log detector errors")
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, closer := logging.Init(level, "")
	defer closer.Close()

	fmt.Println("FocusPulse probe check")
	fmt.Println("======================")

	det, err := detector.New(*name)
	if err != nil {
		log.Fatalf("Failed to create detector: %v", err)
	}
	p := probe.New(det, *titles).WithLogger(logger)
	defer p.Close()

	fmt.Printf("\nDisplay Server: %s\n", det.GetDisplayServer())
	fmt.Printf("Is Available: %v\n\n", det.IsAvailable())

	fmt.Printf("Sampling the focused window every %v for %v\n", *every, *total)
	fmt.Println("Switch between different applications to test detection")
	fmt.Println()

	ticker := time.NewTicker(*every)
	defer ticker.Stop()

	timeout := time.After(*total)
	count := 0
	last := ""

	for {
		select {
		case <-timeout:
			if h, ok := det.(*hybrid.Detector); ok {
				fmt.Printf("\n%s", h.GetStatus())
			}
			fmt.Println("\nCheck completed!")
			return

		case <-ticker.C:
			count++
			label := p.CurrentForegroundApp()
			marker := " "
			if label != last {
				marker = "*"
				last = label
			}
			fmt.Printf("[%3d] %s %s\n", count, marker, truncate(label, 80))
		}
	}
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
