// Package xmltree превращает XML-документ в дерево из map[string]any, []any
// и скаляров и даёт тотальные функции доступа к такому дереву.
package xmltree

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	xpp "github.com/mmcdole/goxpp"
	"golang.org/x/net/html/charset"
)

const (
	DefaultAttributePrefix = "@_"
	DefaultTextKey         = "#text"

	xmlNamespaceURL = "http://www.w3.org/XML/1998/namespace"
)

// canonicalPrefixes задаёт префиксы, которые используются независимо от того,
// как пространство имён объявлено в самой ленте.
var canonicalPrefixes = map[string]string{
	"http://www.itunes.com/dtds/podcast-1.0.dtd": "itunes",
}

// Options управляет видом построенного дерева.
type Options struct {
	AttributePrefix  string
	TextKey          string
	CoerceAttributes bool
	TrimText         bool
}

// DefaultOptions соответствует соглашениям, на которые рассчитан normalize.
func DefaultOptions() Options {
	return Options{
		AttributePrefix:  DefaultAttributePrefix,
		TextKey:          DefaultTextKey,
		CoerceAttributes: true,
		TrimText:         true,
	}
}

// DecodeError возвращается для синтаксически испорченного XML.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode xml: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decoder строит дерево документа.
type Decoder struct {
	opts Options
}

// NewDecoder создаёт Decoder; пустые префикс и ключ текста заменяются значениями по умолчанию.
func NewDecoder(opts Options) *Decoder {
	if opts.AttributePrefix == "" {
		opts.AttributePrefix = DefaultAttributePrefix
	}
	if opts.TextKey == "" {
		opts.TextKey = DefaultTextKey
	}
	return &Decoder{opts: opts}
}

type frame struct {
	name     string
	spaces   map[string]string
	attrs    map[string]any
	children map[string]any
	text     strings.Builder
}

// Decode читает документ целиком. Корень результата - отображение имён
// элементов верхнего уровня на их значения.
func (d *Decoder) Decode(r io.Reader) (map[string]any, error) {
	p := xpp.NewXMLPullParser(r, false, charset.NewReaderLabel)

	root := &frame{spaces: map[string]string{}, children: map[string]any{}}
	stack := []*frame{root}

	for {
		event, err := p.Next()
		if err != nil {
			return nil, &DecodeError{Err: err}
		}

		switch event {
		case xpp.StartTag:
			parent := stack[len(stack)-1]
			f := &frame{spaces: declaredSpaces(parent.spaces, p.Attrs)}
			f.name = qualify(f.spaces, p.Space, p.Name)
			f.attrs = d.attributes(f.spaces, p.Attrs)
			stack = append(stack, f)

		case xpp.Text:
			stack[len(stack)-1].text.WriteString(p.Text)

		case xpp.EndTag:
			if len(stack) < 2 {
				return nil, &DecodeError{Err: fmt.Errorf("unexpected end tag %q", p.Name)}
			}
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			appendChild(stack[len(stack)-1], f.name, d.value(f))

		case xpp.EndDocument:
			if len(stack) != 1 {
				return nil, &DecodeError{Err: io.ErrUnexpectedEOF}
			}
			return root.children, nil
		}
	}
}

func (d *Decoder) value(f *frame) any {
	text := f.text.String()
	if d.opts.TrimText {
		text = strings.TrimSpace(text)
	}

	if len(f.attrs) == 0 && len(f.children) == 0 {
		return text
	}

	out := make(map[string]any, len(f.attrs)+len(f.children)+1)
	for k, v := range f.attrs {
		out[k] = v
	}
	for k, v := range f.children {
		out[k] = v
	}
	if text != "" {
		out[d.opts.TextKey] = text
	}
	return out
}

func (d *Decoder) attributes(spaces map[string]string, attrs []xml.Attr) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for _, a := range attrs {
		var name string
		switch {
		case a.Name.Space == "xmlns":
			name = "xmlns:" + a.Name.Local
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			name = "xmlns"
		default:
			name = qualify(spaces, a.Name.Space, a.Name.Local)
		}

		var v any = a.Value
		if d.opts.CoerceAttributes {
			v = coerce(a.Value)
		}
		out[d.opts.AttributePrefix+name] = v
	}
	return out
}

// declaredSpaces возвращает карту URI -> префикс с учётом объявлений xmlns на элементе.
func declaredSpaces(parent map[string]string, attrs []xml.Attr) map[string]string {
	var spaces map[string]string
	for _, a := range attrs {
		var prefix string
		switch {
		case a.Name.Space == "xmlns":
			prefix = a.Name.Local
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			prefix = ""
		default:
			continue
		}
		if spaces == nil {
			spaces = make(map[string]string, len(parent)+1)
			for k, v := range parent {
				spaces[k] = v
			}
		}
		spaces[strings.TrimSpace(a.Value)] = prefix
	}
	if spaces == nil {
		return parent
	}
	return spaces
}

func qualify(spaces map[string]string, space, local string) string {
	if space == "" {
		return local
	}
	if space == xmlNamespaceURL {
		return "xml:" + local
	}
	prefix, ok := canonicalPrefixes[strings.ToLower(space)]
	if !ok {
		prefix, ok = spaces[space]
	}
	if !ok {
		// encoding/xml оставляет необъявленный префикс как есть.
		prefix = space
	}
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

func appendChild(parent *frame, name string, v any) {
	if parent.children == nil {
		parent.children = make(map[string]any)
	}
	existing, ok := parent.children[name]
	if !ok {
		parent.children[name] = v
		return
	}
	if list, isList := existing.([]any); isList {
		parent.children[name] = append(list, v)
		return
	}
	parent.children[name] = []any{existing, v}
}

// coerce приводит значение атрибута к int64, float64 или bool, если оно так выглядит.
func coerce(s string) any {
	t := strings.TrimSpace(s)
	if t == "" {
		return s
	}
	switch t {
	case "true":
		return true
	case "false":
		return false
	}
	if !looksNumeric(t) {
		return s
	}
	if n, err := strconv.ParseInt(t, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return f
	}
	return s
}

func looksNumeric(s string) bool {
	digits := strings.TrimLeft(s, "+-")
	if digits == "" || len(s)-len(digits) > 1 {
		return false
	}
	// "007" и подобные остаются строками, чтобы не терять ведущие нули.
	if len(digits) > 1 && digits[0] == '0' && digits[1] != '.' {
		return false
	}
	dot := false
	for i, c := range digits {
		switch {
		case c >= '0' && c <= '9':
		case c == '.' && !dot && i > 0 && i < len(digits)-1:
			dot = true
		default:
			return false
		}
	}
	return true
}
