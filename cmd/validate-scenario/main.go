package main

import (
	"fmt"
	"os"

	"github.com/marcelsud/webhook-simulator/scenario"
)

/* validate-scenario - Standalone CLI tool to validate a scenarios file
 * Usage: go run cmd/validate-scenario/main.go [scenarios.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	// Get scenarios file path from args or use default
	scenariosFile := "scenarios.yaml"
	if len(os.Args) > 1 {
		scenariosFile = os.Args[1]
	}

	fmt.Printf("Validating scenarios file: %s\n", scenariosFile)

	// Create loader and attempt to load scenarios
	loader := scenario.NewLoader()
	if err := loader.Load(scenariosFile); err != nil {
		fmt.Fprintf(os.Stderr, "❌ VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Success - print loaded scenarios
	scenarios := loader.List()
	fmt.Printf("✓ VALIDATION PASSED\n\n")
	fmt.Printf("Loaded %d scenario(s):\n", len(scenarios))

	for i, sc := range scenarios {
		fmt.Printf("\n%d. Scenario: %s\n", i+1, sc.Name)
		fmt.Printf("   Delay Factor:  %g\n", sc.DelayFactor)
		fmt.Printf("   Replay Failed: %t\n", sc.ReplayFailed)
		fmt.Printf("   Response Code: %d\n", sc.Receiver.ResponseCode)
		if sc.Receiver.ResponseDelay > 0 {
			fmt.Printf("   Response Delay: %s\n", sc.Receiver.ResponseDelay)
		}
		if sc.Receiver.Secret != "" {
			fmt.Printf("   Signature Verification: enabled\n")
		}
		fmt.Printf("   Idempotency:   %t\n", sc.Receiver.Idempotency)
		fmt.Printf("   Steps:\n")
		for _, step := range sc.Steps {
			fmt.Printf("     - %s x%d\n", step.Type, step.Count)
		}
	}

	fmt.Printf("\n✓ All scenarios are valid!\n")
	os.Exit(0)
}
