// Package parser extracts meta records from delimited comment blocks.
//
// A block opens with "<delim> <--[type]", declares fields with
// "<delim> @field value", continues a field with "<delim> text" and closes
// with "<delim> -->". Problems never abort a parse; they are returned as
// Warnings alongside the records that did parse.
package parser

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fyrsmithlabs/metadex/internal/meta"
)

// maxLineSize bounds a single source line.
const maxLineSize = 1024 * 1024

// SchemaLookup resolves a lowercase type name to its schema.
type SchemaLookup interface {
	Schema(name string) (*meta.TypeSchema, bool)
}

// Result is the outcome of parsing one source.
type Result struct {
	Records  []*meta.Record
	Warnings []Warning
}

// Parser turns source text into records of registered types.
type Parser struct {
	schemas SchemaLookup
}

// New returns a parser resolving types against schemas.
func New(schemas SchemaLookup) *Parser {
	return &Parser{schemas: schemas}
}

// ParseFile parses the file at path. Only I/O failures are returned as
// errors.
func (p *Parser) ParseFile(ctx context.Context, path, delimiter string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	res, err := p.Parse(ctx, f, path, delimiter)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return res, nil
}

// Parse reads r line by line. name identifies the source in records and
// warnings.
func (p *Parser) Parse(ctx context.Context, r io.Reader, name, delimiter string) (*Result, error) {
	if delimiter == "" {
		return nil, errors.New("empty comment delimiter")
	}

	s := &state{
		schemas: p.schemas,
		file:    name,
		open:    delimiter + " <--[",
		field:   delimiter + " @",
		close:   delimiter + " -->",
		cont:    delimiter + " ",
		delim:   delimiter,
		result:  &Result{},
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if s.line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		s.line++
		s.feed(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	s.finish()
	return s.result, nil
}

// state is the two-state machine: outside a record when current is nil,
// inside one otherwise.
type state struct {
	schemas SchemaLookup
	file    string
	line    int

	open, field, close, cont, delim string

	current   *meta.Record
	openedAt  int
	fieldKey  string
	capturing bool
	pending   strings.Builder

	result *Result
}

func (s *state) feed(line string) {
	if s.current == nil {
		s.outside(line)
		return
	}
	s.inside(line)
}

func (s *state) outside(line string) {
	idx := strings.Index(line, s.open)
	if idx < 0 {
		return
	}
	rest := line[idx+len(s.open):]
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		s.warn(MalformedOpen, "", line)
		return
	}
	typ := strings.ToLower(strings.TrimSpace(rest[:end]))
	schema, ok := s.schemas.Schema(typ)
	if !ok {
		s.warn(UnknownType, typ, line)
		return
	}
	s.current = schema.New()
	s.current.Source = meta.Location{File: s.file, Line: s.line}
	s.openedAt = s.line
}

func (s *state) inside(line string) {
	if idx := strings.Index(line, s.field); idx >= 0 {
		s.flush(line)
		s.startField(line, line[idx+len(s.field):])
		return
	}
	if strings.Contains(line, s.close) {
		s.flush(line)
		s.closeRecord()
		return
	}
	if !s.capturing {
		return
	}
	if idx := strings.Index(line, s.cont); idx >= 0 {
		s.pending.WriteString(line[idx+len(s.cont):])
		s.pending.WriteByte('\n')
		return
	}
	if strings.TrimSpace(line) == s.delim {
		// bare delimiter keeps paragraph breaks
		s.pending.WriteByte('\n')
	}
}

func (s *state) startField(line, decl string) {
	decl = strings.TrimSpace(decl)
	key, value, hasValue := strings.Cut(decl, " ")
	key = strings.ToLower(key)

	if _, ok := s.current.Schema().Field(key); !ok {
		s.warn(UnknownField, s.current.Type()+"."+key, line)
		s.capturing = false
		s.fieldKey = ""
		return
	}
	s.fieldKey = key
	s.capturing = true
	if hasValue {
		s.pending.WriteString(value)
		s.pending.WriteByte('\n')
	}
}

// flush writes the pending buffer into the current field.
func (s *state) flush(line string) {
	defer func() {
		s.pending.Reset()
		s.capturing = false
		s.fieldKey = ""
	}()
	if !s.capturing {
		return
	}
	value := strings.TrimSpace(s.pending.String())
	if err := s.current.Set(s.fieldKey, value); err != nil {
		s.warn(DuplicateValue, s.current.Type()+"."+s.fieldKey, line)
	}
}

func (s *state) closeRecord() {
	if err := s.current.Finalize(); err != nil {
		s.warnAt(s.openedAt, InvalidPattern, err.Error(), "")
	}
	s.result.Records = append(s.result.Records, s.current)
	s.current = nil
}

func (s *state) finish() {
	if s.current == nil {
		return
	}
	s.warnAt(s.openedAt, Unterminated, s.current.Type(), "")
	s.current = nil
	s.pending.Reset()
	s.capturing = false
}

func (s *state) warn(kind Kind, detail, raw string) {
	s.warnAt(s.line, kind, detail, raw)
}

func (s *state) warnAt(line int, kind Kind, detail, raw string) {
	s.result.Warnings = append(s.result.Warnings, Warning{
		File:   s.file,
		Line:   line,
		Kind:   kind,
		Detail: detail,
		Raw:    raw,
	})
}
