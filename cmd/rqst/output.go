package main

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/repoquest/rqst/internal/runtime"
)

// emitDescriptor renders a StateDescriptor in the resolved output format:
// "json" and "yaml" marshal the descriptor directly, anything else (the
// "table" default) prints the human-readable chapter-by-chapter summary.
func emitDescriptor(output string, d runtime.StateDescriptor) error {
	switch output {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(d)
	default:
		printDescriptorTable(d)
		return nil
	}
}

func printDescriptorTable(d runtime.StateDescriptor) {
	fmt.Printf("Quest: %s\n", d.WorkingDir)
	fmt.Printf("State: %s\n", d.State)
	fmt.Printf("Skippable: %t\n\n", d.CanSkip)

	for _, ch := range d.Chapters {
		fmt.Printf("%s\n", ch.Label)
		if ch.IssueURL != "" {
			fmt.Printf("  issue:    %s\n", ch.IssueURL)
		}
		if ch.StarterPullURL != "" {
			fmt.Printf("  starter:  %s\n", ch.StarterPullURL)
		}
		if ch.SolutionPullURL != "" {
			fmt.Printf("  solution: %s\n", ch.SolutionPullURL)
		}
		if ch.ReferenceSolutionPullURL != "" {
			fmt.Printf("  reference: %s\n", ch.ReferenceSolutionPullURL)
		}
	}
}
