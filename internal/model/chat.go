package model

import "time"

// ChatMessage 只追加的对话日志
type ChatMessage struct {
	ID                 uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID             string    `gorm:"size:128;not null;index" json:"user_id"`
	Content            string    `gorm:"type:text;not null" json:"content"`
	Response           string    `gorm:"type:text" json:"response"`
	ContextAlgorithmID string    `gorm:"size:128" json:"context_algorithm_id,omitempty"`
	ContextSectionID   string    `gorm:"size:128" json:"context_section_id,omitempty"`
	ContextTopic       string    `gorm:"size:255" json:"context_topic,omitempty"`
	CreatedAt          time.Time `gorm:"index" json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

type ChatContext struct {
	AlgorithmID string `json:"algorithmId,omitempty"`
	SectionID   string `json:"sectionId,omitempty"`
	Topic       string `json:"topic,omitempty"`
}

func (c *ChatContext) IsZero() bool {
	return c == nil || (c.AlgorithmID == "" && c.SectionID == "" && c.Topic == "")
}

type ChatReply struct {
	Response  string       `json:"response"`
	Timestamp time.Time    `json:"timestamp"`
	Context   *ChatContext `json:"context"`
	Source    string       `json:"source"`
}
