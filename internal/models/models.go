package models

// Chunk is one bounded slice of a source document. Chunk ids are
// contiguous starting at 0 within a source file. Once written to the
// chunk store a chunk is never edited.
type Chunk struct {
	ChunkID    int    `json:"chunk_id"`
	Text       string `json:"text"`
	TokenCount int    `json:"token_count"`
	SourceFile string `json:"source_file"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleAssistant }

// ChatMessage is one turn of the conversation supplied with a request.
// Not persisted.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Reference points back at a retrieved chunk.
type Reference struct {
	ChunkID int    `json:"chunk_id"`
	Source  string `json:"source"`
	Preview string `json:"preview"`
}

// Suggestion is the generated nudge plus the chunks that informed it,
// in retrieval order. Nudge mirrors Suggestion; callers key on either.
type Suggestion struct {
	Suggestion string      `json:"suggestion"`
	Nudge      string      `json:"nudge"`
	References []Reference `json:"references"`
}
