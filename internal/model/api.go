package model

// IngestRequest carries extracted text and metadata produced by the upload
// and extraction collaborator.
type IngestRequest struct {
	Filename      string  `json:"filename"`
	ContentType   string  `json:"content_type"`
	SizeBytes     int64   `json:"size_bytes"`
	SHA256        string  `json:"sha256"`
	ExtractedText string  `json:"extracted_text"`
	Metadata      JSONMap `json:"metadata,omitempty"`
}

// IngestResponse reports the stored document and its chunk count. Embeddings
// populate in the background after this response.
type IngestResponse struct {
	DocumentID int64 `json:"document_id"`
	ChunkCount int   `json:"chunk_count"`
}

// SearchMode selects a retrieval method.
type SearchMode string

const (
	SearchLexical SearchMode = "lexical"
	SearchVector  SearchMode = "vector"
	SearchHybrid  SearchMode = "hybrid"
)

// SearchRequest is a direct search over the caller's indexed chunks.
type SearchRequest struct {
	Query string     `json:"query"`
	Mode  SearchMode `json:"mode"`
	K     int        `json:"k"`
}

// SearchResult is one ranked search hit.
type SearchResult struct {
	ChunkID    int64   `json:"chunk_id"`
	DocumentID int64   `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	Methods    string  `json:"methods,omitempty"`
}

// SearchResponse is the ordered result set, flagged when one retrieval
// method was unavailable.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Partial bool           `json:"partial,omitempty"`
}

// ChatRequest is one turn of the chat protocol.
type ChatRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversation_id,omitempty"`
	TopK           int    `json:"top_k,omitempty"`
	Debug          bool   `json:"debug,omitempty"`
}

// ChatResponse is the completed turn.
type ChatResponse struct {
	Answer         string   `json:"answer"`
	ConversationID string   `json:"conversation_id"`
	Sources        []Source `json:"sources"`
	UsedRetrieval  bool     `json:"used_retrieval"`

	// Debug-only fields.
	Route            string `json:"route,omitempty"`
	PartialRetrieval bool   `json:"partial_retrieval,omitempty"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
	Limit         int                   `json:"limit"`
	Offset        int                   `json:"offset"`
	Count         int                   `json:"count"`
}

// ListMessagesResponse is the ordered turn history of one conversation.
type ListMessagesResponse struct {
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
}
