// Package output delivers the final transcript to the user's clipboard.
package output

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/averch/hark/internal/config"
)

// Committer writes transcript text through the configured clipboard command.
type Committer struct {
	clipboard config.CommandConfig
}

// NewCommitter constructs a transcript committer from runtime config.
func NewCommitter(clipboard config.CommandConfig) *Committer {
	return &Committer{clipboard: clipboard}
}

// Commit writes transcript text to the clipboard. Empty transcripts are a
// no-op: a silent session must not clobber existing clipboard contents.
func (c *Committer) Commit(ctx context.Context, transcript string) error {
	if transcript == "" {
		return nil
	}

	commitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := runCommandWithInput(commitCtx, c.clipboard.Argv, transcript); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}
	return nil
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}
