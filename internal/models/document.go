package models

// Document is a downloadable file produced by the grade service or the gateway.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}
