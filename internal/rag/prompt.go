package rag

import (
	"fmt"
	"strings"

	"nudge/internal/index"
	"nudge/internal/models"
)

const promptPreamble = `You are a software design mentor providing gentle, thought-provoking nudges to guide designers in their thinking process.

These nudges should be:
- Short, gentle questions or prompts (1-2 sentences max)
- Thought-provoking rather than prescriptive
- Encouraging reflection on the problem, solution, or design process

IMPORTANT: Generate ONLY a short nudge question or prompt (1-2 sentences). Do not provide full design suggestions or detailed explanations. Just the gentle nudge itself.`

const promptClosing = `Based on the above context, chat history, and scratchpad notes, generate a single gentle nudge prompt (a reflective question or gentle suggestion) that would help the designer think more deeply about the following query:

Query: %s

Nudge Prompt (just the question/prompt, 1-2 sentences max):`

// BuildPrompt assembles the mentor prompt from retrieved chunks, chat
// history, scratchpad notes and the query. Pure function; empty
// sections are omitted entirely.
func BuildPrompt(retrieved []index.Result, history []models.ChatMessage, scratchpad, query string) string {
	var sections []string
	sections = append(sections, promptPreamble)

	if len(retrieved) > 0 {
		var refs []string
		for i, r := range retrieved {
			refs = append(refs, fmt.Sprintf("[Reference %d]\n%s", i+1, r.Chunk.Text))
		}
		sections = append(sections, "Relevant Knowledge:\n"+strings.Join(refs, "\n\n"))
	}
	if len(history) > 0 {
		var lines []string
		for _, m := range history {
			lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
		}
		sections = append(sections, "Chat History:\n"+strings.Join(lines, "\n"))
	}
	if scratchpad != "" {
		sections = append(sections, "Scratchpad Notes:\n"+scratchpad)
	}

	sections = append(sections, fmt.Sprintf(promptClosing, query))
	return strings.Join(sections, "\n\n")
}
