// Package prompt builds the model-facing text: system prompts, the router
// classification exchange, and the assembled document context.
package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/docchat-ai/rag-platform/internal/llm"
	"github.com/docchat-ai/rag-platform/internal/model"
)

// GroundedSystemPrompt instructs the answer model to stay inside the
// provided context and cite sources by tag.
const GroundedSystemPrompt = `You are a helpful assistant that answers questions using only the provided document context.

Rules:
- Answer using only the information in the CONTEXT section.
- Cite the sources you used with their tags, like [S1] or [S2], inline where the information appears.
- If the context does not contain the answer, say so plainly instead of guessing.
- Keep answers concise and factual.
- Never use any emoji.`

// CasualSystemPrompt handles small talk without retrieval.
const CasualSystemPrompt = `You are a friendly assistant for a document question-answering service. The user is making small talk or asking about the service itself, not their documents. Reply briefly and naturally. Never use any emoji.`

// UngroundedSystemPrompt covers grounded questions where retrieval found
// nothing. The answer must disclose the missing grounding.
const UngroundedSystemPrompt = `You are a helpful assistant for a document question-answering service. No relevant passages were found in the user's documents for this question. Begin your reply by telling the user that nothing relevant was found in their documents, then answer from general knowledge if you can, keeping it brief. Never use any emoji.`

const routerSystemPrompt = `You classify a user's message for a document question-answering service. Reply with exactly one JSON object and nothing else: {"route":"casual"} if the message is small talk, a greeting, or about the service itself; {"route":"grounded"} if answering it would require looking at the user's documents. When unsure, choose "grounded".`

// RouterMessages builds the classification exchange. Recent history is
// inlined into the user message so follow-up questions classify correctly.
func RouterMessages(question string, history []model.Message) []llm.ChatMessage {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, msg := range history {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, truncate(msg.Content, 300))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Message to classify: %s", question)

	return []llm.ChatMessage{
		{Role: string(model.RoleSystem), Content: routerSystemPrompt},
		{Role: string(model.RoleUser), Content: b.String()},
	}
}

// ChatMessages builds the full generation exchange: system prompt, prior
// turns, then the current question with optional context block.
func ChatMessages(systemPrompt, contextText, question string, history []model.Message) []llm.ChatMessage {
	messages := make([]llm.ChatMessage, 0, len(history)+2)
	messages = append(messages, llm.ChatMessage{Role: string(model.RoleSystem), Content: systemPrompt})

	for _, msg := range history {
		if !msg.Role.Valid() || msg.Role == model.RoleSystem {
			continue
		}
		messages = append(messages, llm.ChatMessage{Role: string(msg.Role), Content: msg.Content})
	}

	user := question
	if contextText != "" {
		user = fmt.Sprintf("CONTEXT:\n%s\n\nQUESTION: %s", contextText, question)
	}
	messages = append(messages, llm.ChatMessage{Role: string(model.RoleUser), Content: user})
	return messages
}

// truncate caps s at n characters, cutting on a rune boundary.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
