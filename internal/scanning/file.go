package scanning

import (
	"encoding/base64"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MaxTextChars caps how much of a text document is sent to the model
const MaxTextChars = 30000

// AcceptedExtensions lists the file types the upload form offers
var AcceptedExtensions = []string{".pdf", ".png", ".jpg", ".jpeg", ".eml", ".msg"}

// File is one submitted document
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// FileKind selects how a file is sent to the model
type FileKind int

const (
	KindText FileKind = iota
	KindPDF
	KindImage
)

func (k FileKind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindImage:
		return "image"
	default:
		return "text"
	}
}

// Kind classifies f by content type, falling back to its extension.
// Anything that is neither PDF nor image is read as text.
func (f File) Kind() FileKind {
	ct := normalizeMIME(f.ContentType)
	ext := strings.ToLower(filepath.Ext(f.Name))
	switch {
	case ct == "application/pdf" || ext == ".pdf":
		return KindPDF
	case strings.HasPrefix(ct, "image/") || ext == ".jpg" || ext == ".jpeg" || ext == ".png":
		return KindImage
	default:
		return KindText
	}
}

// ContentTypeFor guesses a MIME type from a filename extension
func ContentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	case ".eml":
		return "message/rfc822"
	case ".msg":
		return "application/vnd.ms-outlook"
	default:
		return "application/octet-stream"
	}
}

// Request is one prepared model call
type Request struct {
	Prompt   string
	MIMEType string // empty for text-only requests
	Data     []byte
}

// Inline reports whether the request carries binary content
func (r Request) Inline() bool {
	return r.MIMEType != "" && len(r.Data) > 0
}

// Base64 returns the inline content in its text-safe transport form
func (r Request) Base64() string {
	return base64.StdEncoding.EncodeToString(r.Data)
}

// prepareRequest shapes f into a model call carrying the fixed instruction
func prepareRequest(f File) Request {
	instruction := Instruction(f.Name)
	switch f.Kind() {
	case KindPDF:
		return Request{Prompt: instruction, MIMEType: "application/pdf", Data: f.Data}
	case KindImage:
		return Request{Prompt: instruction, MIMEType: imageMIMEType(f), Data: f.Data}
	default:
		text := truncateText(string(f.Data), MaxTextChars)
		return Request{Prompt: "Analyze this document: \n\n " + text + " \n\n " + instruction}
	}
}

func imageMIMEType(f File) string {
	ct := normalizeMIME(f.ContentType)
	if strings.HasPrefix(ct, "image/") {
		return ct
	}
	if guessed := ContentTypeFor(f.Name); strings.HasPrefix(guessed, "image/") {
		return guessed
	}
	return "image/jpeg"
}

// truncateText keeps at most n characters of s
func truncateText(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// normalizeMIME lowercases a MIME type and drops its parameters
func normalizeMIME(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}
