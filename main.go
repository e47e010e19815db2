// plint - a source-tree policy engine for IDE/agent-assisted projects.
//
// plint decides which rules apply to a project, evaluates them, and produces
// decisions with explanations. It runs in two modes:
//
//	plint lint [path]          batch scan of a whole tree
//	plint hook --source claude one decision per IDE/agent lifecycle event
//
// Usage as a Claude Code hook in ~/.claude/settings.json:
//
//	"hooks": {
//	  "PreToolUse": [{
//	    "hooks": [{"type": "command", "command": "plint hook --source claude"}]
//	  }]
//	}
package main

import (
	"os"

	"github.com/plint-dev/plint/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
