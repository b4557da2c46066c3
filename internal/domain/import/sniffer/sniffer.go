// Package sniffer identifies statement documents before parsing.
// It recognises PDF containers and matches page text against bank signatures.
package sniffer

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
)

// Kind is the detected container format of an uploaded file.
type Kind string

const (
	KindPDF     Kind = "pdf"
	KindUnknown Kind = "unknown"
)

var (
	ErrEmptyFile = errors.New("file is empty")
	ErrNotPDF    = errors.New("file is not a PDF document")
)

var pdfMagic = []byte("%PDF-")

// headerWindow is how far into the file the PDF header may appear.
const headerWindow = 1024

// IsPDF reports whether data carries a PDF header within the first kilobyte.
func IsPDF(data []byte) bool {
	head := data
	if len(head) > headerWindow {
		head = head[:headerWindow]
	}
	return bytes.Contains(head, pdfMagic)
}

// Detect returns the container kind of data.
func Detect(data []byte) (Kind, error) {
	if len(data) == 0 {
		return KindUnknown, ErrEmptyFile
	}
	if IsPDF(data) {
		return KindPDF, nil
	}
	return KindUnknown, ErrNotPDF
}

// BankSignature describes how a bank's statements identify themselves.
type BankSignature struct {
	Bank      string
	Phrases   []string // matched case-insensitively against page text
	FileHints []string // matched case-insensitively against the file base name
}

// ICICISignature is the signature of the reference ICICI statement layout.
var ICICISignature = BankSignature{
	Bank:      "ICICI",
	Phrases:   []string{"ICICI BANK", "icicibank.com", "ICIC0", "ICICI Bank Limited"},
	FileHints: []string{"icici"},
}

// MatchesFileName reports whether the file name carries one of the hints.
func (s BankSignature) MatchesFileName(fileName string) bool {
	base := strings.ToLower(filepath.Base(fileName))
	for _, hint := range s.FileHints {
		if hint != "" && strings.Contains(base, strings.ToLower(hint)) {
			return true
		}
	}
	return false
}

// MatchesText reports whether the page text contains one of the phrases.
func (s BankSignature) MatchesText(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range s.Phrases {
		if phrase != "" && strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

// statementKeywords appear on the first page of any transaction statement.
var statementKeywords = []string{
	"statement", "account", "balance", "withdrawal", "deposit", "particulars",
	"transaction", "debit", "credit", "opening", "closing",
}

// LooksLikeStatement reports whether text contains at least two statement keywords.
func LooksLikeStatement(text string) bool {
	lower := strings.ToLower(text)
	hits := 0
	for _, kw := range statementKeywords {
		if strings.Contains(lower, kw) {
			hits++
			if hits >= 2 {
				return true
			}
		}
	}
	return false
}
