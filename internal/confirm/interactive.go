package confirm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
)

// InteractiveDecider prompts on the terminal for each refactoring. Setting
// MEND_AUTO_APPROVE=true short-circuits every prompt to apply, which keeps
// scripted environments from hanging on stdin.
type InteractiveDecider struct {
	root string
}

// NewInteractiveDecider creates a prompt-driven decider. Previews resolve
// file paths against root.
func NewInteractiveDecider(root string) *InteractiveDecider {
	return &InteractiveDecider{root: root}
}

// Decide shows the planned refactoring and loops on y/n/d until the user
// commits. Interrupt and EOF decline the item.
func (d *InteractiveDecider) Decide(ctx context.Context, req Request) (Decision, error) {
	if os.Getenv("MEND_AUTO_APPROVE") == "true" {
		return Apply, nil
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Println()
	fmt.Printf("%s %s\n", yellow("Proposed:"), req.Refactoring.Description)
	fmt.Printf("  Target: %s\n", req.Refactoring.Target())
	fmt.Printf("  Score:  %.0f\n", req.Score)

	rl, err := readline.NewEx(&readline.Config{
		Prompt: cyan("Apply? [y/n/d=show diff]: "),
	})
	if err != nil {
		return Skip, fmt.Errorf("failed to initialize prompt: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return Skip, nil
			}
			return Skip, fmt.Errorf("failed to read input: %w", err)
		}

		switch strings.TrimSpace(strings.ToLower(line)) {
		case "y", "yes":
			return Apply, nil
		case "n", "no":
			return Skip, nil
		case "d", "diff":
			preview, err := Preview(d.root, req.Changes)
			if err != nil {
				fmt.Printf("Error rendering diff: %v\n", err)
				continue
			}
			fmt.Println(preview)
		default:
			fmt.Printf("Invalid input %q. Please enter y, n, or d.\n", strings.TrimSpace(line))
		}
	}
}
