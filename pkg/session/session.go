// Package session parses line-delimited conversation logs into transcripts
// renderable as markdown.
package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Message is a single conversation turn.
type Message struct {
	Role      string `json:"role"` // "user" or "assistant"
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Session is an ordered conversation grouped by session identifier.
type Session struct {
	ID       string    `json:"session_id"`
	Messages []Message `json:"messages"`
	Source   string    `json:"source"`
}

// record is the wire shape of one log line.
type record struct {
	Type      string         `json:"type"`
	SessionID string         `json:"sessionId"`
	Timestamp string         `json:"timestamp"`
	Message   *recordMessage `json:"message"`
}

type recordMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// contentBlock is one element of a block-list content payload.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Markdown renders the session for chunking and embedding: a top-level
// heading naming the session, then one second-level heading per message.
func (s *Session) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Session %s\n", s.ID)
	for _, msg := range s.Messages {
		label := "Assistant"
		if msg.Role == "user" {
			label = "User"
		}
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", label, msg.Content)
	}
	return b.String()
}

// ParseFile parses a JSONL session log. Lines that are not valid JSON or
// not recognized conversation turns are skipped silently. Sessions keep
// first-seen order; sessions with no surviving messages are dropped.
func ParseFile(path string) ([]*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open session log: %w", err)
	}
	defer f.Close()

	byID := make(map[string]*Session)
	var order []string

	scan := bufio.NewScanner(f)
	scan.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}

		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		if rec.Type != "user" && rec.Type != "assistant" {
			continue
		}

		content := resolveContent(rec.Message)
		if strings.TrimSpace(content) == "" {
			continue
		}

		role := rec.Type
		if rec.Message != nil && rec.Message.Role != "" {
			role = rec.Message.Role
		}

		id := rec.SessionID
		if id == "" {
			id = "unknown"
		}

		sess, ok := byID[id]
		if !ok {
			sess = &Session{ID: id, Source: path}
			byID[id] = sess
			order = append(order, id)
		}
		sess.Messages = append(sess.Messages, Message{
			Role:      role,
			Content:   content,
			Timestamp: rec.Timestamp,
		})
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session log: %w", err)
	}

	sessions := make([]*Session, 0, len(order))
	for _, id := range order {
		if len(byID[id].Messages) > 0 {
			sessions = append(sessions, byID[id])
		}
	}
	return sessions, nil
}

// resolveContent converts the tagged content variant to plain text: either a
// JSON string, or a list of blocks of which only text blocks survive.
func resolveContent(msg *recordMessage) string {
	if msg == nil || len(msg.Content) == 0 {
		return ""
	}

	var plain string
	if err := json.Unmarshal(msg.Content, &plain); err == nil {
		return plain
	}

	var blocks []json.RawMessage
	if err := json.Unmarshal(msg.Content, &blocks); err != nil {
		return ""
	}

	var parts []string
	for _, raw := range blocks {
		var str string
		if err := json.Unmarshal(raw, &str); err == nil {
			parts = append(parts, str)
			continue
		}
		var block contentBlock
		if err := json.Unmarshal(raw, &block); err == nil && block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}
