package jsonstream

import (
	"io"
	"slices"
)

// Spec declares which fields Project pulls out of a document.
type Spec struct {
	// Fields are scalar member values captured at any depth, the first
	// occurrence of a name wins.
	Fields []string
	// Raw are member values captured whole, objects and arrays as JSON text.
	Raw []string

	// List enables record-list mode over the array held by Anchor, or over
	// the root array when Anchor is empty.
	List         bool
	Anchor       string
	RecordFields []string
	RecordLists  []string
}

type Record struct {
	Fields map[string]string
	Lists  map[string][]string
}

type Result struct {
	Fields  map[string]string
	Records []Record
	// Items are the scalar elements directly inside the anchor array.
	Items []string
}

// Project walks the token stream of r once, tracking array and object depth
// instead of building a document tree.
func Project(r io.Reader, spec Spec) (Result, error) {
	p := newProjector(spec)
	reader := NewReader(r)
	for {
		tok, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return p.result(), err
		}

		if tok.Kind == Name && p.wantsRaw(tok.Text) {
			raw, err := reader.Raw()
			if err != nil {
				return p.result(), err
			}
			p.out.Fields[tok.Text] = raw
			p.afterName = false
			continue
		}
		p.step(tok)
	}
	return p.result(), nil
}

type projector struct {
	spec Spec

	arrayDepth  int
	objectDepth int
	property    string
	afterName   bool
	// property in effect for each enclosing container
	properties []string

	// anchor region, depths inside it are measured relative to these
	listActive bool
	listDone   bool
	baseArray  int
	baseObject int

	pending Record
	out     Result
}

func newProjector(spec Spec) *projector {
	return &projector{
		spec: spec,
		out: Result{
			Fields:  map[string]string{},
			Records: []Record{},
			Items:   []string{},
		},
	}
}

func (p *projector) result() Result {
	return p.out
}

func (p *projector) wantsRaw(name string) bool {
	if p.listActive || !slices.Contains(p.spec.Raw, name) {
		return false
	}
	_, seen := p.out.Fields[name]
	return !seen
}

func (p *projector) relArray() int {
	return p.arrayDepth - p.baseArray + 1
}

func (p *projector) relObject() int {
	return p.objectDepth - p.baseObject
}

func (p *projector) step(tok Token) {
	memberValue := p.afterName
	p.afterName = false

	switch tok.Kind {
	case Name:
		p.property = tok.Text
		p.afterName = true

	case BeginArray:
		starts := p.startsList(memberValue)
		p.enter()
		p.arrayDepth++
		if starts {
			p.listActive = true
			p.baseArray = p.arrayDepth
			p.baseObject = p.objectDepth
		}

	case EndArray:
		if p.listActive && p.relArray() == 1 {
			p.listActive = false
			p.listDone = true
		}
		p.arrayDepth--
		p.leave()

	case BeginObject:
		p.enter()
		p.objectDepth++
		if p.listActive && p.relArray() == 1 && p.relObject() == 1 {
			p.pending = p.newRecord()
		}

	case EndObject:
		if p.listActive && p.relArray() == 1 && p.relObject() == 1 {
			p.out.Records = append(p.out.Records, p.pending)
			p.pending = p.newRecord()
		}
		p.objectDepth--
		p.leave()

	case Scalar:
		if tok.Null {
			return
		}
		if p.listActive {
			p.listScalar(tok, memberValue)
			return
		}
		if memberValue && slices.Contains(p.spec.Fields, p.property) {
			if _, seen := p.out.Fields[p.property]; !seen {
				p.out.Fields[p.property] = tok.Text
			}
		}
	}
}

func (p *projector) enter() {
	p.properties = append(p.properties, p.property)
}

func (p *projector) leave() {
	if n := len(p.properties); n > 0 {
		p.property = p.properties[n-1]
		p.properties = p.properties[:n-1]
	}
}

func (p *projector) startsList(memberValue bool) bool {
	if !p.spec.List || p.listActive || p.listDone {
		return false
	}
	if p.spec.Anchor == "" {
		return p.arrayDepth == 0 && p.objectDepth == 0
	}
	return memberValue && p.property == p.spec.Anchor
}

func (p *projector) listScalar(tok Token, memberValue bool) {
	arr, obj := p.relArray(), p.relObject()
	switch {
	case arr == 1 && obj == 0 && !memberValue:
		p.out.Items = append(p.out.Items, tok.Text)
	case arr == 1 && obj == 1 && memberValue:
		if slices.Contains(p.spec.RecordFields, p.property) {
			p.pending.Fields[p.property] = tok.Text
		}
	case arr == 2 && obj == 1 && !memberValue:
		if slices.Contains(p.spec.RecordLists, p.property) {
			p.pending.Lists[p.property] = append(p.pending.Lists[p.property], tok.Text)
		}
	}
}

func (p *projector) newRecord() Record {
	rec := Record{
		Fields: map[string]string{},
		Lists:  make(map[string][]string, len(p.spec.RecordLists)),
	}
	for _, name := range p.spec.RecordLists {
		rec.Lists[name] = []string{}
	}
	return rec
}
