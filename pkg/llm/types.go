// Package llm wraps the Gemini provider (google.golang.org/genai) behind
// a single Complete/StreamComplete/Embed interface, with cost
// accounting, prompt caching, and token budgets (§4.3). No other
// provider is implemented.
//
// Grounded on the teacher's pkg/agent/llm_client.go (ConversationMessage,
// the tagged Chunk interface with an unexported chunkType() method) and
// theRebelliousNerd-codenerd's internal/embedding/genai.go (genai.Client
// construction and EmbedContent call shape) — the teacher's own
// pkg/llm/client.go talks gRPC to a Python sidecar, which this package
// replaces with a direct google.golang.org/genai client.
package llm

// Message roles, generalized from the teacher's RoleSystem/RoleUser/
// RoleAssistant constants (RoleTool dropped — Planning Explorer's
// capabilities never issue tool calls).
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn in a conversation sent to Complete/StreamComplete.
type Message struct {
	Role    string
	Content string
}

// Response is the result of a non-streaming Complete call (§4.3).
type Response struct {
	Content      string
	Model        string
	Provider     string
	TokensUsed   int
	CostUSD      float64
	FinishReason string
}

// ChunkType identifies the kind of streaming chunk, mirroring the
// teacher's tagged-union Chunk pattern.
type ChunkType string

const (
	ChunkTypeText  ChunkType = "text"
	ChunkTypeUsage ChunkType = "usage"
	ChunkTypeError ChunkType = "error"
)

// Chunk is the interface every streamed value satisfies.
type Chunk interface {
	chunkType() ChunkType
}

// TextChunk carries one piece of the model's streamed text response.
type TextChunk struct{ Content string }

// UsageChunk reports token/cost accounting for the completed stream.
// It is always the final non-error chunk sent.
type UsageChunk struct {
	TokensUsed int
	CostUSD    float64
}

// ErrorChunk signals the stream ended in error.
type ErrorChunk struct{ Message string }

func (c TextChunk) chunkType() ChunkType  { return ChunkTypeText }
func (c UsageChunk) chunkType() ChunkType { return ChunkTypeUsage }
func (c ErrorChunk) chunkType() ChunkType { return ChunkTypeError }

// UsageStats is the running per-model and total cost/token accounting
// returned by GetUsageStats (§4.3).
type UsageStats struct {
	PerModel map[string]ModelUsage
	Total    ModelUsage
}

// ModelUsage accumulates tokens and cost for one model (or the grand
// total).
type ModelUsage struct {
	Requests     int
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}
