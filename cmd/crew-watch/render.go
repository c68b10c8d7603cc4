package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/motu-crew/crewboard/internal/livelist"
)

func render(w io.Writer, s livelist.Snapshot, now time.Time) {
	state := "live"
	if !s.Visible {
		state = "paused"
	}
	fmt.Fprintf(w, "\n[%s] %d jobs (%s)\n", now.Format("15:04:05"), len(s.Jobs), state)

	pending := map[string]bool{}
	for _, id := range s.InFlight {
		pending[id] = true
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, j := range s.Jobs {
		status := j.Status
		if pending[j.ID] {
			status += " *"
		}
		fmt.Fprintf(tw, "%d.\t%s\t%s\t%s\t%s\t%s\t%s\n", i+1, j.Date, j.StartTime, j.CrewName, j.FullAddress, j.Feeder, status)
	}
	_ = tw.Flush()
}
