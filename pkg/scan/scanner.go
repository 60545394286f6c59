// Package scan implements a single-pass capture scanner over HTML token
// streams.
//
// The scanner walks start-tag, end-tag and text events and maintains one
// piece of state: the field currently being captured (or idle). Which events
// open a capture, how captured text is routed and when a capture closes are
// declared up front in a [Config] rule table, so the same walker serves any
// page layout. Extractors configure it with their own trigger tables and
// receive values through callbacks.
package scan

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// TagTrigger opens a capture when a start tag carries a matching attribute.
// Triggers only fire while the scanner is idle.
type TagTrigger struct {
	Tag   string // element name, e.g. "h1"
	Attr  string // attribute key, e.g. "class"
	Value string // exact attribute value to match
	Field string // field opened on match
}

// Route accepts a text chunk into the capturing field. A chunk is consumed
// only when the start tag seen immediately before it matches PrevTag; an
// empty PrevTag accepts any chunk.
type Route struct {
	PrevTag string
}

// Field declares capture behavior for one field. Fields absent from the
// config table default to a single capture that accepts any text chunk.
type Field struct {
	// Routes are tried in order; the first match consumes the chunk and
	// closes the capture. Empty means accept anything.
	Routes []Route

	// Multi keeps the capture open across repeated child anchors until the
	// Container end tag is seen. Each anchor's href is held pending and
	// paired with the next non-empty text chunk as its label.
	Multi     bool
	Container string

	// HrefField captures an anchor's href attribute into a separate field
	// while this capture is open, without changing scanner state.
	HrefField string
}

// Config is the complete rule table for one scanner configuration.
type Config struct {
	// Tags open captures from start-tag attributes.
	Tags []TagTrigger

	// Labels open captures when an idle text chunk exactly equals the label.
	// Each label fires at most once per scan.
	Labels map[string]string

	// Markers label the previously seen text chunk retroactively: when an
	// idle chunk equals the marker token, the prior chunk is emitted under
	// the mapped field. Like labels, each marker fires at most once.
	Markers map[string]string

	// Fields holds per-field capture behavior, keyed by field name.
	Fields map[string]Field

	// OnValue receives every captured (field, value) pair.
	OnValue func(field, value string)

	// OnPair receives (field, label, url) triples from multi-item fields.
	OnPair func(field, label, url string)
}

// Scanner is the stateful walker. A Scanner is single-use: allocate one per
// document with [New] and feed it once via [Scanner.Run].
type Scanner struct {
	cfg Config

	capture  string   // active field name, "" when idle
	lastTag  string   // most recent start tag
	lastText string   // most recent non-empty trimmed text chunk
	pending  []string // hrefs awaiting their label text (multi fields)
	used     map[string]bool
}

// New creates a scanner for one document using the given rule table.
func New(cfg Config) *Scanner {
	return &Scanner{cfg: cfg, used: make(map[string]bool)}
}

// Run tokenizes r and feeds every event through the rule table.
// It returns nil on end of input and the tokenizer error otherwise.
func (s *Scanner) Run(r io.Reader) error {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return nil
			}
			return z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, attrs := tagAttrs(z)
			s.startTag(name, attrs)
		case html.EndTagToken:
			name, _ := z.TagName()
			s.endTag(string(name))
		case html.TextToken:
			s.text(string(z.Text()))
		}
	}
}

func tagAttrs(z *html.Tokenizer) (string, map[string]string) {
	name, hasAttr := z.TagName()
	var attrs map[string]string
	if hasAttr {
		attrs = make(map[string]string)
		for {
			k, v, more := z.TagAttr()
			attrs[string(k)] = string(v)
			if !more {
				break
			}
		}
	}
	return string(name), attrs
}

func (s *Scanner) startTag(tag string, attrs map[string]string) {
	if s.capture == "" {
		for _, t := range s.cfg.Tags {
			if t.Tag == tag && attrs[t.Attr] == t.Value {
				s.capture = t.Field
				break
			}
		}
	} else if tag == "a" {
		f := s.field()
		href := strings.TrimSpace(attrs["href"])
		switch {
		case f.Multi:
			if href != "" {
				s.pending = append(s.pending, href)
			}
		case f.HrefField != "" && href != "":
			s.emit(f.HrefField, href)
		}
	}
	s.lastTag = tag
}

func (s *Scanner) endTag(tag string) {
	if s.capture == "" {
		return
	}
	if f := s.field(); f.Multi && tag == f.Container {
		s.capture = ""
		s.pending = nil
	}
}

func (s *Scanner) text(data string) {
	text := strings.TrimSpace(data)

	switch {
	case s.capture != "":
		s.captureText(text)
	case text != "":
		if field, ok := s.cfg.Markers[text]; ok && !s.used[text] {
			s.used[text] = true
			if s.lastText != "" {
				s.emit(field, s.lastText)
			}
		} else if field, ok := s.cfg.Labels[text]; ok && !s.used[text] {
			s.used[text] = true
			s.capture = field
		}
	}

	if text != "" {
		s.lastText = text
	}
}

// captureText routes one chunk into the active field. Empty chunks and
// chunks arriving after an unlisted tag never consume the capture; the
// scanner waits for a routable non-empty chunk instead. Multi-item fields
// stay open and pair each chunk with the most recently pending href.
func (s *Scanner) captureText(text string) {
	f := s.field()
	if f.Multi {
		if text != "" && len(s.pending) > 0 {
			url := s.pending[len(s.pending)-1]
			s.pending = s.pending[:len(s.pending)-1]
			if s.cfg.OnPair != nil {
				s.cfg.OnPair(s.capture, text, url)
			}
		}
		return
	}
	if text == "" || !s.routed(f) {
		return
	}
	s.emit(s.capture, text)
	s.capture = ""
}

func (s *Scanner) routed(f Field) bool {
	if len(f.Routes) == 0 {
		return true
	}
	for _, r := range f.Routes {
		if r.PrevTag == "" || r.PrevTag == s.lastTag {
			return true
		}
	}
	return false
}

func (s *Scanner) field() Field {
	return s.cfg.Fields[s.capture]
}

func (s *Scanner) emit(field, value string) {
	if s.cfg.OnValue != nil {
		s.cfg.OnValue(field, value)
	}
}
