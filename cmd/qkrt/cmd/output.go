package cmd

import (
	"fmt"
	"sort"
	"time"

	qkrt "github.com/Zaba505/qiskit-runtime-go"
	"github.com/spf13/cobra"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func statusIcon(status qkrt.Status) string {
	switch status {
	case qkrt.StatusDone:
		return colorGreen + "✓" + colorReset
	case qkrt.StatusError:
		return colorRed + "✗" + colorReset
	case qkrt.StatusCancelled:
		return colorYellow + "⊘" + colorReset
	case qkrt.StatusRunning:
		return colorYellow + "⏳" + colorReset
	case qkrt.StatusQueued:
		return colorCyan + "◯" + colorReset
	}
	return "•"
}

func colorizeStatus(status qkrt.Status) string {
	icon := statusIcon(status)
	switch status {
	case qkrt.StatusDone:
		return icon + " " + colorGreen + status.String() + colorReset
	case qkrt.StatusError:
		return icon + " " + colorRed + status.String() + colorReset
	case qkrt.StatusRunning, qkrt.StatusCancelled:
		return icon + " " + colorYellow + status.String() + colorReset
	case qkrt.StatusQueued:
		return icon + " " + colorCyan + status.String() + colorReset
	}
	return status.String()
}

func printDetails(cmd *cobra.Command, d *qkrt.JobDetails) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %sJob Details%s\n", statusIcon(d.Status), colorBold, colorReset)
	fmt.Fprintln(out, "──────────────────────────────")
	fmt.Fprintf(out, "%sID:%s          %s\n", colorDim, colorReset, d.Id)
	fmt.Fprintf(out, "%sStatus:%s      %s\n", colorDim, colorReset, colorizeStatus(d.Status))
	fmt.Fprintf(out, "%sBackend:%s     %s\n", colorDim, colorReset, d.Backend)
	fmt.Fprintf(out, "%sProgram:%s     %s\n", colorDim, colorReset, d.ProgramId)
	if d.Reason != "" {
		fmt.Fprintf(out, "%sReason:%s      %s%s%s\n", colorDim, colorReset, colorRed, d.Reason, colorReset)
	}
	if !d.Created.IsZero() {
		fmt.Fprintf(out, "%sCreated:%s     %s\n", colorDim, colorReset, d.Created.Format(time.RFC1123))
	}
	if d.QuantumSeconds > 0 {
		fmt.Fprintf(out, "%sUsage:%s       %.1fs\n", colorDim, colorReset, d.QuantumSeconds)
	}
}

// printCounts lists bitstrings by decreasing count, ties in bitstring order
func printCounts(cmd *cobra.Command, ss *qkrt.SampleSet) {
	out := cmd.OutOrStdout()
	counts := ss.Counts()
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	width := ss.NumBits()
	if width < len("BITS") {
		width = len("BITS")
	}
	fmt.Fprintf(out, "%-*s  %s\n", width, "BITS", "COUNT")
	for _, k := range keys {
		fmt.Fprintf(out, "%-*s  %d\n", width, k, counts[k])
	}
	fmt.Fprintf(out, "%s%d shots%s\n", colorDim, ss.Len(), colorReset)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
