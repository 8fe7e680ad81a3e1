// Package assets provides embedded prompt text.
//
// Prompts are stored as text files under prompts/ and embedded at compile time
// so they can be edited without touching Go code.
package assets

import (
	_ "embed"
)

// AgentInstructionPrompt is the system instruction of the media video agent.
//
//go:embed prompts/agent-instruction.txt
var AgentInstructionPrompt string
