package models

// ItemKind distinguishes files from folders in the remote tree.
type ItemKind string

const (
	ItemKindFile   ItemKind = "file"
	ItemKindFolder ItemKind = "folder"
)

// RemoteItem is an immutable snapshot of one item in the remote file tree,
// taken at crawl time.
type RemoteItem struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Kind     ItemKind `json:"kind"`
	MimeType string   `json:"mime_type"`
	Size     int64    `json:"size"`
	ParentID string   `json:"parent_id,omitempty"`
}

// Chunk is the atomic retrieval unit: a bounded span of extracted document
// text plus the metadata needed for filtered search and provenance.
// ChunkID is "{document_id}-{sequence}" and is unique within a document.
type Chunk struct {
	Content    string `json:"content"`
	DocumentID string `json:"document_id"`
	ProjectID  string `json:"project_id"`
	TenantID   string `json:"tenant_id"`
	SourceFile string `json:"source_file"`
	ChunkID    string `json:"chunk_id"`
}

// IndexedPoint is one entry in the vector index. ID is a stable hash of the
// chunk id, so re-indexing the same chunk overwrites instead of duplicating.
type IndexedPoint struct {
	ID      int64
	Vector  []float32
	Payload Chunk
}

// ScoredChunk is a search hit: the stored payload plus its similarity score.
type ScoredChunk struct {
	Score   float32
	Payload Chunk
}

// DocumentNode carries the metadata merged into the graph store for one
// processed document.
type DocumentNode struct {
	DocumentID string
	Filename   string
	ProjectID  string
	TenantID   string
	MimeType   string
	SizeBytes  int64
	ChunkCount int
}

// ContextItem is one ranked piece of retrieved context handed to the
// answer generator.
type ContextItem struct {
	Content    string  `json:"content"`
	Score      float32 `json:"score"`
	SourceFile string  `json:"source_file"`
	ProjectID  string  `json:"project_id"`
	DocumentID string  `json:"document_id"`
}
