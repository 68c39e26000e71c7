package domain

type AnswerMode string

const (
	ModeExact AnswerMode = "EXACT"
	ModeRAG   AnswerMode = "RAG"
)

type ConfidenceTier string

const (
	ConfidenceHigh ConfidenceTier = "high"
	ConfidenceLow  ConfidenceTier = "low"
)

// NoInformationAnswer is returned when neither generation nor context can answer.
const NoInformationAnswer = "No encuentro información en las FAQ para responder."

// AnswerPolicy holds the thresholds that decide between echo and generation.
type AnswerPolicy struct {
	AlwaysRAG           bool
	HighThreshold       float64
	ExactRewriteWithLLM bool
}

// ModeDecision is the outcome of the answer mode selection.
//
// Mode reports the confidence level of the match, not the generation path:
// a high-confidence match rewritten by the model is still EXACT. Generated
// and Confidence carry the two facts separately.
type ModeDecision struct {
	Mode       AnswerMode
	Generate   bool
	UseLLM     bool
	Confidence ConfidenceTier
}

// ChatSettings is constructed once at startup and passed to the chat use case.
type ChatSettings struct {
	TopK        int
	Policy      AnswerPolicy
	Budget      ContextBudget
	DefaultRole string
	DefaultLang string
}

type ChatRequest struct {
	Message string
	Role    string
	Lang    string
	TraceID string
}

type Source struct {
	FAQID     int64   `json:"faq_id"`
	SegmentID int64   `json:"segment_id"`
	Score     float64 `json:"score"`
	Link      *string `json:"link"`
}

type ChatMeta struct {
	TopK       int            `json:"top_k"`
	LatencyMS  int64          `json:"latency_ms"`
	TraceID    string         `json:"trace_id,omitempty"`
	Lang       string         `json:"lang"`
	Role       string         `json:"role"`
	Confidence ConfidenceTier `json:"confidence"`
	Generated  bool           `json:"generated"`
	Degraded   bool           `json:"degraded,omitempty"`
	BestScore  float64        `json:"best_score"`
}

type ChatResult struct {
	Mode    AnswerMode `json:"mode"`
	Answer  string     `json:"answer"`
	Sources []Source   `json:"sources"`
	Meta    ChatMeta   `json:"meta"`
}
