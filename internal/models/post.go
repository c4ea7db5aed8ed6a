package models

import (
	"fmt"
	"time"
)

type Post struct {
	ID        int64     `json:"id" dynamodbav:"id"`
	Title     string    `json:"title" dynamodbav:"title"`
	Content   string    `json:"content" dynamodbav:"content"`
	Body      string    `json:"body" dynamodbav:"body"`
	Image     string    `json:"image" dynamodbav:"image"`
	AuthorID  int64     `json:"author_id" dynamodbav:"author_id"`
	Author    string    `json:"author" dynamodbav:"author"`
	Category  string    `json:"category" dynamodbav:"category"`
	Type      string    `json:"type" dynamodbav:"type"`
	Tags      []string  `json:"tags,omitempty" dynamodbav:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// Posts live under a single partition so list queries come back ordered by
// id; the sort key is zero-padded to keep lexicographic and numeric order
// aligned.
func (p *Post) GetPK() string {
	return "POSTS"
}

func (p *Post) GetSK() string {
	return PostSK(p.ID)
}

func PostSK(id int64) string {
	return fmt.Sprintf("POST#%012d", id)
}
