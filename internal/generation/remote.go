package generation

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// ContentPart is one piece of caller-supplied study content. A part is
// either text or an image: image parts carry raw bytes and a MIME type,
// text parts carry the text verbatim. Filename is optional context for the
// model on both variants. Parts pass through the request builder opaquely.
type ContentPart struct {
	Text     string
	Data     []byte
	MIMEType string
	Filename string
}

// NewTextPart creates a text content part. filename may be empty.
func NewTextPart(text, filename string) ContentPart {
	return ContentPart{Text: text, Filename: filename}
}

// NewImagePart creates an image content part from raw bytes and a MIME type.
func NewImagePart(data []byte, mimeType, filename string) ContentPart {
	return ContentPart{Data: data, MIMEType: mimeType, Filename: filename}
}

// IsImage reports whether the part carries image bytes.
func (p ContentPart) IsImage() bool {
	return len(p.Data) > 0
}

// Request is a fully assembled model request: the rendered prompt, the
// caller's content parts, the instructional framing for the subject, the
// structural schema the model is asked to conform to, and the per-task
// output-size ceiling.
type Request struct {
	SystemInstruction string
	Prompt            string
	Parts             []ContentPart
	Schema            *genai.Schema
	MaxOutputTokens   int32
}

// ModelCaller executes one request against the remote generative model
// using the given credential and returns the raw response text. It performs
// no retries; retrying is the executor's concern.
type ModelCaller interface {
	Generate(ctx context.Context, credential string, req *Request) (string, error)
}

// RemoteError is a remote call failure that carries an HTTP-like status
// code. The transport layer converts provider errors into RemoteError so
// the retry classifier never has to import provider types.
type RemoteError struct {
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface for RemoteError.
func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote generation failed (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote generation failed (status %d)", e.StatusCode)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *RemoteError) Unwrap() error {
	return e.Err
}
