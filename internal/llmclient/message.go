package llmclient

// Role is the speaker of one turn in a conversation passed to Call/Stream.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of rolling chat history or the current user utterance.
type Message struct {
	Role Role
	Text string
}

// Config is the subset of a bot's LLM binding the adapter needs to shape a
// request: the fields of entity.LLMConfig without DatabaseId. Callers fill
// it field by field, folding any knowledge-base content into SystemPrompt
// themselves (see ComposeSystemPrompt).
type Config struct {
	ApiUrl       string
	ApiKey       string
	AiModel      string
	SystemPrompt string
}

// ComposeSystemPrompt applies spec.md §4.3's knowledge-injection rule: the
// configured system prompt, with database content appended when present.
func ComposeSystemPrompt(systemPrompt, databaseType, databaseContent string) string {
	if databaseContent == "" {
		return systemPrompt
	}
	switch databaseType {
	case "json":
		return systemPrompt + "\n\nДанные из базы (JSON):\n" + databaseContent
	default:
		return systemPrompt + "\n\nБаза знаний:\n" + databaseContent
	}
}

// flattenForGemini renders history as "User:/Assistant:" lines prepended to
// the final user message, since Gemini has no dedicated system-message slot
// in the shape this adapter uses.
func flattenForGemini(systemPrompt string, messages []Message) string {
	var b []byte
	if systemPrompt != "" {
		b = append(b, systemPrompt...)
		b = append(b, "\n\n"...)
	}
	for _, m := range messages {
		switch m.Role {
		case RoleAssistant:
			b = append(b, "Assistant: "...)
		default:
			b = append(b, "User: "...)
		}
		b = append(b, m.Text...)
		b = append(b, '\n')
	}
	return string(b)
}
