// Package tutor wraps the tutoring collaborator: it receives the settled
// board raster plus the conversation so far and returns a short comment and
// an optional topic label.
package tutor

import "context"

// Message is one entry of the ordered conversation history. Exactly one of
// Text or ImagePNG is set.
type Message struct {
	Role     string // "user" or "assistant"
	Text     string
	ImagePNG []byte
}

// Reply is the collaborator's answer. Comment may be empty: the tutor is
// allowed to say nothing about an intermediate state.
type Reply struct {
	Comment string
	Topic   string
}

// Client is the tutoring collaborator contract. It must tolerate repeated
// invocations with growing history.
type Client interface {
	Tutor(ctx context.Context, boardPNG []byte, history []Message) (Reply, error)
}
