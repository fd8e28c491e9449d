package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"golang.org/x/term"

	"github.com/sos2a/assessment/internal/report"
)

func formatBatch(batch *report.Batch, format string) (string, error) {
	switch format {
	case "json":
		return report.FormatJSON(batch), nil
	case "yaml":
		return report.FormatYAML(batch), nil
	case "markdown":
		return report.FormatMarkdown(batch), nil
	case "terminal":
		return report.FormatTerminal(batch), nil
	default:
		return "", fmt.Errorf("unknown format %q (want terminal, json, markdown or yaml)", format)
	}
}

func writeOutput(output, path, format string, noPager bool) error {
	if path != "" {
		if err := os.WriteFile(path, []byte(output), 0644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", path)
		return nil
	}

	// Page terminal output only when stdout is a TTY.
	if format == "terminal" && !noPager && isTerminal() {
		return outputWithPager(output)
	}

	fmt.Print(output)
	return nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// outputWithPager pipes output through $PAGER, or less -R -X.
func outputWithPager(output string) error {
	pager := os.Getenv("PAGER")
	if pager == "" {
		pager = "less"
	}

	var args []string
	if pager == "less" {
		args = []string{"-R", "-X"}
	}

	cmd := exec.Command(pager, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		fmt.Print(output)
		return nil
	}
	if err := cmd.Start(); err != nil {
		fmt.Print(output)
		return nil
	}

	io.WriteString(stdin, output)
	stdin.Close()

	// Quitting the pager early is not an error.
	cmd.Wait()
	return nil
}
