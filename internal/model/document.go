package model

import (
	"encoding/json"
	"time"
)

// Document is one indexed unit of retrievable knowledge (a package, a
// destination, a deal...). Metadata holds category-specific key/value pairs
// and Embedding the dense vector, both JSON-encoded text for portability.
type Document struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:256;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Source    string    `gorm:"size:32;not null;index" json:"source"`
	Type      string    `gorm:"size:32" json:"type"`
	Metadata  string    `gorm:"type:text" json:"-"`
	Embedding string    `gorm:"type:text" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MetadataMap returns the parsed metadata bag; empty map on parse error.
func (d *Document) MetadataMap() map[string]any {
	m := map[string]any{}
	if d.Metadata == "" {
		return m
	}
	_ = json.Unmarshal([]byte(d.Metadata), &m)
	return m
}

// SetMetadata stores the metadata bag as JSON.
func (d *Document) SetMetadata(m map[string]any) {
	if len(m) == 0 {
		d.Metadata = "{}"
		return
	}
	b, _ := json.Marshal(m)
	d.Metadata = string(b)
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (d *Document) EmbeddingVector() []float32 {
	if d.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(d.Embedding), &v)
	return v
}

// SetEmbedding stores the embedding as JSON.
func (d *Document) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		d.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	d.Embedding = string(b)
}
