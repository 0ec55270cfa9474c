// Copyright 2015-2017 Piprate Limited
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ld

// maxStateDepth bounds the converter's state stack so adversarially deep
// input (runaway array/object nesting) can't exhaust memory. Once
// exceeded, tokens are dropped with a diagnostic rather than processed.
const maxStateDepth = 4096

// contextStackEntry pairs an ActiveContext with the number of still-open
// object scopes sharing it. A new entry is only pushed when a @context
// declaration is actually processed inside an object; plain nested objects
// just bump the top entry's refCount, so sibling objects without their own
// @context share the same ActiveContext instance.
type contextStackEntry struct {
	context  *ActiveContext
	refCount int
}

// ExpansionConverter is a push-down automaton that turns a stream of JSON
// Tokens into a stream of higher-level Events, applying the JSON-LD
// Expansion Algorithm one token at a time. It never buffers the document;
// the only materialized JSON it ever holds is a @context subtree, and only
// for the duration of a single ToNode buffering state.
type ExpansionConverter struct {
	state   []expansionState
	context []contextStackEntry
	isEnd   bool
	lenient bool
}

// NewExpansionConverter creates a converter rooted at the given document
// base IRI. When lenient is true, IRI parsing failures (bases, vocabs,
// relative resolution) are downgraded to unchecked best-effort acceptance
// instead of producing a diagnostic.
func NewExpansionConverter(baseIRI string, hasBaseIRI bool, lenient bool) *ExpansionConverter {
	return &ExpansionConverter{
		state:   []expansionState{stateElement{}},
		context: []contextStackEntry{{context: NewEmptyContext(baseIRI, hasBaseIRI), refCount: 1}},
		lenient: lenient,
	}
}

// IsEnd reports whether the converter has consumed its terminating Eof
// token. Callers must stop feeding tokens once this is true.
func (c *ExpansionConverter) IsEnd() bool {
	return c.isEnd
}

// ConvertEvent consumes one Token, mutating the converter's internal state
// and context stacks and appending zero or more Events and Diagnostics to
// the caller-owned buffers. The call is synchronous and performs no I/O.
func (c *ExpansionConverter) ConvertEvent(token Token, events *[]Event, diagnostics *[]Diagnostic) {
	if len(c.state) > maxStateDepth {
		*diagnostics = append(*diagnostics, NewDiagnostic("too large state stack"))
		return
	}
	if token.Kind == TokenEOF {
		c.isEnd = true
		return
	}

	state := c.state[len(c.state)-1]
	c.state = c.state[:len(c.state)-1]

	switch st := state.(type) {
	case stateElement:
		c.convertElement(false, token, events)
	case stateElementArray:
		c.convertElement(true, token, events)
	case stateObjectStart:
		c.convertObjectStart(st, token, events, diagnostics)
	case stateObjectType:
		c.convertObjectType(st.types, st.id, st.hasID, false, token, diagnostics)
	case stateObjectTypeArray:
		c.convertObjectType(st.types, st.id, st.hasID, true, token, diagnostics)
	case stateObjectID:
		c.convertObjectID(st, token, events, diagnostics)
	case stateObject:
		c.convertObject(st, token, events, diagnostics)
	case stateValue:
		c.convertValue(st, token, events, diagnostics)
	case stateValueValue:
		c.convertValueValue(st, token, diagnostics)
	case stateValueLanguage:
		c.convertValueLanguage(st, token, diagnostics)
	case stateValueType:
		c.convertValueType(st, token, diagnostics)
	case stateSkip:
		c.convertSkip(false, token)
	case stateSkipArray:
		c.convertSkip(true, token)
	case stateToNode:
		c.convertToNode(st, token, diagnostics)
	}
}

func (c *ExpansionConverter) convertElement(isArray bool, token Token, events *[]Event) {
	repush := func() {
		if isArray {
			c.state = append(c.state, stateElementArray{})
		}
	}
	switch token.Kind {
	case TokenNull:
		repush()
	case TokenString:
		repush()
		c.expandValue(StringValue(token.Text), events)
	case TokenNumber:
		repush()
		c.expandValue(NumberValue(token.Text), events)
	case TokenBoolean:
		repush()
		c.expandValue(BooleanValue(token.Bool), events)
	case TokenStartArray:
		repush()
		c.state = append(c.state, stateElementArray{})
	case TokenEndArray:
		// nothing to do: the ElementArray frame for this array was
		// popped at the top of ConvertEvent and is not pushed again.
	case TokenStartObject:
		repush()
		c.pushSameContext()
		c.state = append(c.state, stateObjectStart{})
	}
}

func (c *ExpansionConverter) convertObjectStart(st stateObjectStart, token Token, events *[]Event, diagnostics *[]Diagnostic) {
	switch token.Kind {
	case TokenObjectKey:
		result, ok := c.expandIRI(token.Text, false, true)
		if !ok {
			c.state = append(c.state, st, stateSkip{})
			return
		}
		if !result.IsKeyword {
			*events = append(*events, StartObjectEvent(st.types))
			if st.hasID {
				*events = append(*events, IDEvent(st.id))
			}
			*events = append(*events, StartPropertyEvent(result.Value))
			c.state = append(c.state, stateObject{inProperty: true}, stateElement{})
			return
		}
		switch result.Value {
		case "context":
			c.state = append(c.state, stateToNode{endState: toNodeEndStateContext})
		case "type":
			c.state = append(c.state, stateObjectType{types: st.types, id: st.id, hasID: st.hasID})
		case "value":
			if len(st.types) > 1 {
				*diagnostics = append(*diagnostics, NewCodedDiagnostic(
					"only a single @type is allowed when @value is present", InvalidTypedValue,
				))
			}
			var typ string
			hasType := len(st.types) > 0
			if hasType {
				typ = st.types[len(st.types)-1]
			}
			c.state = append(c.state, stateValueValue{typ: typ, hasType: hasType})
		case "language":
			if len(st.types) > 1 {
				*diagnostics = append(*diagnostics, NewCodedDiagnostic(
					"only a single @type is allowed in a value object", InvalidTypedValue,
				))
			}
			var typ string
			hasType := len(st.types) > 0
			if hasType {
				typ = st.types[len(st.types)-1]
			}
			c.state = append(c.state, stateValueLanguage{typ: typ, hasType: hasType})
		case "id":
			if st.hasID {
				*diagnostics = append(*diagnostics, NewCodedDiagnostic(
					"only a single @id is allowed", CollidingKeywords,
				))
			}
			c.state = append(c.state, stateObjectID{types: st.types, id: st.id, hasID: st.hasID, fromStart: true})
		default:
			*diagnostics = append(*diagnostics, NewDiagnostic("unsupported JSON-LD keyword: @"+result.Value))
			c.state = append(c.state, st, stateSkip{})
		}
	case TokenEndObject:
		*events = append(*events, StartObjectEvent(st.types))
		if st.hasID {
			*events = append(*events, IDEvent(st.id))
		}
		*events = append(*events, EndObjectEvent())
		c.popContext()
	}
}

func (c *ExpansionConverter) convertObjectType(types []string, id string, hasID bool, isArray bool, token Token, diagnostics *[]Diagnostic) {
	backToStart := func() {
		if isArray {
			c.state = append(c.state, stateObjectTypeArray{types: types, id: id, hasID: hasID})
		} else {
			c.state = append(c.state, stateObjectStart{types: types, id: id, hasID: hasID})
		}
	}
	switch token.Kind {
	case TokenNull, TokenNumber, TokenBoolean:
		*diagnostics = append(*diagnostics, NewCodedDiagnostic("@type value must be a string", InvalidTypeValue))
		backToStart()
	case TokenString:
		if result, ok := c.expandIRI(token.Text, false, true); ok {
			if result.IsKeyword {
				*diagnostics = append(*diagnostics, NewDiagnostic("@"+result.Value+" is not a valid value for @type"))
			} else {
				types = append(types, result.Value)
			}
		}
		backToStart()
	case TokenStartArray:
		if isArray {
			*diagnostics = append(*diagnostics, NewCodedDiagnostic("@type cannot contain a nested array", InvalidTypeValue))
			c.state = append(c.state, stateObjectTypeArray{types: types, id: id, hasID: hasID}, stateSkipArray{})
		} else {
			c.state = append(c.state, stateObjectTypeArray{types: types, id: id, hasID: hasID})
		}
	case TokenEndArray:
		c.state = append(c.state, stateObjectStart{types: types, id: id, hasID: hasID})
	case TokenStartObject:
		*diagnostics = append(*diagnostics, NewCodedDiagnostic("@type value must be a string", InvalidTypeValue))
		backToStart()
		c.state = append(c.state, stateSkip{})
	}
}

func (c *ExpansionConverter) convertObjectID(st stateObjectID, token Token, events *[]Event, diagnostics *[]Diagnostic) {
	backTo := func(id string, hasID bool) {
		if st.fromStart {
			c.state = append(c.state, stateObjectStart{types: st.types, id: id, hasID: hasID})
			return
		}
		if hasID {
			*events = append(*events, IDEvent(id))
		}
		c.state = append(c.state, stateObject{inProperty: false})
	}
	switch token.Kind {
	case TokenString:
		id, hasID := st.id, st.hasID
		if result, ok := c.expandIRI(token.Text, true, false); ok {
			if result.IsKeyword {
				*diagnostics = append(*diagnostics, NewDiagnostic("@id value must be an IRI or a blank node"))
			} else {
				id, hasID = result.Value, true
			}
		}
		backTo(id, hasID)
	case TokenNull, TokenNumber, TokenBoolean:
		*diagnostics = append(*diagnostics, NewCodedDiagnostic("@id value must be a string", InvalidLanguageTaggedString))
		backTo(st.id, st.hasID)
	case TokenStartArray:
		*diagnostics = append(*diagnostics, NewCodedDiagnostic("@id value must be a string", InvalidLanguageTaggedString))
		backTo(st.id, st.hasID)
		c.state = append(c.state, stateSkipArray{})
	case TokenStartObject:
		*diagnostics = append(*diagnostics, NewCodedDiagnostic("@id value must be a string", InvalidLanguageTaggedString))
		backTo(st.id, st.hasID)
		c.state = append(c.state, stateSkip{})
	}
}

func (c *ExpansionConverter) convertObject(st stateObject, token Token, events *[]Event, diagnostics *[]Diagnostic) {
	if st.inProperty {
		*events = append(*events, EndPropertyEvent())
	}
	switch token.Kind {
	case TokenEndObject:
		*events = append(*events, EndObjectEvent())
		c.popContext()
	case TokenObjectKey:
		result, ok := c.expandIRI(token.Text, false, true)
		if !ok {
			c.state = append(c.state, stateObject{inProperty: false}, stateSkip{})
			return
		}
		if !result.IsKeyword {
			c.state = append(c.state, stateObject{inProperty: true}, stateElement{})
			*events = append(*events, StartPropertyEvent(result.Value))
			return
		}
		switch result.Value {
		case "id":
			c.state = append(c.state, stateObjectID{fromStart: false})
		default:
			c.state = append(c.state, stateObject{inProperty: false}, stateSkip{})
			*diagnostics = append(*diagnostics, NewDiagnostic("unsupported keyword: "+result.Value))
		}
	}
}

func (c *ExpansionConverter) convertValue(st stateValue, token Token, events *[]Event, diagnostics *[]Diagnostic) {
	switch token.Kind {
	case TokenObjectKey:
		result, ok := c.expandIRI(token.Text, false, true)
		if !ok {
			c.state = append(c.state, st, stateSkip{})
			return
		}
		if !result.IsKeyword {
			*diagnostics = append(*diagnostics, NewCodedDiagnostic(
				"objects with @value cannot contain properties, "+result.Value+" found", InvalidValueObject,
			))
			c.state = append(c.state, st, stateSkip{})
			return
		}
		switch result.Value {
		case "value":
			if st.hasValue {
				*diagnostics = append(*diagnostics, NewCodedDiagnostic("@value cannot be set multiple times", InvalidValueObject))
				c.state = append(c.state, st, stateSkip{})
			} else {
				c.state = append(c.state, stateValueValue{typ: st.typ, hasType: st.hasType, language: st.language, hasLang: st.hasLang})
			}
		case "language":
			if st.hasLang {
				*diagnostics = append(*diagnostics, NewCodedDiagnostic("@language cannot be set multiple times", CollidingKeywords))
				c.state = append(c.state, st, stateSkip{})
			} else {
				c.state = append(c.state, stateValueLanguage{typ: st.typ, hasType: st.hasType, value: st.value, hasValue: st.hasValue})
			}
		case "type":
			if st.hasType {
				*diagnostics = append(*diagnostics, NewCodedDiagnostic("@type cannot be set multiple times", CollidingKeywords))
				c.state = append(c.state, st, stateSkip{})
			} else {
				c.state = append(c.state, stateValueType{value: st.value, hasValue: st.hasValue, language: st.language, hasLang: st.hasLang})
			}
		default:
			*diagnostics = append(*diagnostics, NewDiagnostic("unsupported JSON-LD keyword inside of a @value: @"+result.Value))
			c.state = append(c.state, st, stateSkip{})
		}
	case TokenEndObject:
		if st.hasValue {
			if st.hasLang && st.hasType {
				*diagnostics = append(*diagnostics, NewCodedDiagnostic("@type and @language cannot be used together", InvalidValueObject))
			}
			if st.hasLang && st.value.Kind != ValueString {
				*diagnostics = append(*diagnostics, NewCodedDiagnostic("@language can be used only on a string @value", InvalidLanguageTaggedValue))
			}
			*events = append(*events, ValueEvent(st.value, st.typ, st.hasType, st.language, st.hasLang))
		}
		c.popContext()
	}
}

func (c *ExpansionConverter) convertValueValue(st stateValueValue, token Token, diagnostics *[]Diagnostic) {
	toValue := func(value Value, hasValue bool) {
		c.state = append(c.state, stateValue{typ: st.typ, hasType: st.hasType, value: value, hasValue: hasValue, language: st.language, hasLang: st.hasLang})
	}
	switch token.Kind {
	case TokenNull:
		toValue(Value{}, false)
	case TokenNumber:
		toValue(NumberValue(token.Text), true)
	case TokenBoolean:
		toValue(BooleanValue(token.Bool), true)
	case TokenString:
		toValue(StringValue(token.Text), true)
	case TokenStartArray:
		*diagnostics = append(*diagnostics, NewCodedDiagnostic("@value cannot contain an array", InvalidValueObjectValue))
		toValue(Value{}, false)
		c.state = append(c.state, stateSkipArray{})
	case TokenStartObject:
		*diagnostics = append(*diagnostics, NewCodedDiagnostic("@value cannot contain an object", InvalidValueObjectValue))
		toValue(Value{}, false)
		c.state = append(c.state, stateSkip{})
	}
}

func (c *ExpansionConverter) convertValueLanguage(st stateValueLanguage, token Token, diagnostics *[]Diagnostic) {
	toValue := func(language string, hasLang bool) {
		c.state = append(c.state, stateValue{typ: st.typ, hasType: st.hasType, value: st.value, hasValue: st.hasValue, language: language, hasLang: hasLang})
	}
	switch token.Kind {
	case TokenString:
		toValue(token.Text, true)
	case TokenNull, TokenNumber, TokenBoolean:
		*diagnostics = append(*diagnostics, NewCodedDiagnostic("@language value must be a string", InvalidLanguageTaggedString))
		toValue("", false)
	case TokenStartArray:
		*diagnostics = append(*diagnostics, NewCodedDiagnostic("@language value must be a string", InvalidLanguageTaggedString))
		toValue("", false)
		c.state = append(c.state, stateSkipArray{})
	case TokenStartObject:
		*diagnostics = append(*diagnostics, NewCodedDiagnostic("@language value must be a string", InvalidLanguageTaggedString))
		toValue("", false)
		c.state = append(c.state, stateSkip{})
	}
}

func (c *ExpansionConverter) convertValueType(st stateValueType, token Token, diagnostics *[]Diagnostic) {
	toValue := func(typ string, hasType bool) {
		c.state = append(c.state, stateValue{typ: typ, hasType: hasType, value: st.value, hasValue: st.hasValue, language: st.language, hasLang: st.hasLang})
	}
	switch token.Kind {
	case TokenString:
		toValue(token.Text, true)
	case TokenNull, TokenNumber, TokenBoolean:
		*diagnostics = append(*diagnostics, NewCodedDiagnostic("@type value must be a string when @value is present", InvalidTypedValue))
		toValue("", false)
	case TokenStartArray:
		*diagnostics = append(*diagnostics, NewCodedDiagnostic("@type value must be a string when @value is present", InvalidTypedValue))
		toValue("", false)
		c.state = append(c.state, stateSkipArray{})
	case TokenStartObject:
		*diagnostics = append(*diagnostics, NewCodedDiagnostic("@type value must be a string when @value is present", InvalidTypedValue))
		toValue("", false)
		c.state = append(c.state, stateSkip{})
	}
}

func (c *ExpansionConverter) convertSkip(isArray bool, token Token) {
	repush := func() {
		if isArray {
			c.state = append(c.state, stateSkipArray{})
		}
	}
	switch token.Kind {
	case TokenNull, TokenNumber, TokenBoolean, TokenString:
		repush()
	case TokenEndArray, TokenEndObject:
		// swallowed silently, balance restored
	case TokenStartArray:
		repush()
		c.state = append(c.state, stateSkipArray{})
	case TokenStartObject:
		repush()
		c.state = append(c.state, stateSkip{})
	case TokenObjectKey:
		c.state = append(c.state, stateSkip{}, stateSkip{})
	}
}

func (c *ExpansionConverter) convertToNode(st stateToNode, token Token, diagnostics *[]Diagnostic) {
	switch token.Kind {
	case TokenString:
		c.afterToNodeEvent(st.stack, st.currentKey, st.hasKey, st.endState, StringNode(token.Text), diagnostics)
	case TokenNumber:
		c.afterToNodeEvent(st.stack, st.currentKey, st.hasKey, st.endState, NumberNode(token.Text), diagnostics)
	case TokenBoolean:
		c.afterToNodeEvent(st.stack, st.currentKey, st.hasKey, st.endState, BooleanNode(token.Bool), diagnostics)
	case TokenNull:
		c.afterToNodeEvent(st.stack, st.currentKey, st.hasKey, st.endState, NullNode(), diagnostics)
	case TokenEndArray, TokenEndObject:
		value := st.stack[len(st.stack)-1]
		stack := st.stack[:len(st.stack)-1]
		c.afterToNodeEvent(stack, st.currentKey, st.hasKey, st.endState, value, diagnostics)
	case TokenStartArray:
		st.stack = append(st.stack, Node{Kind: NodeArray})
		c.state = append(c.state, st)
	case TokenStartObject:
		st.stack = append(st.stack, Node{Kind: NodeObject, Fields: map[string]Node{}})
		c.state = append(c.state, st)
	case TokenObjectKey:
		st.currentKey = token.Text
		st.hasKey = true
		c.state = append(c.state, st)
	}
}

func (c *ExpansionConverter) afterToNodeEvent(stack []Node, currentKey string, hasKey bool, endState toNodeEndState, newValue Node, diagnostics *[]Diagnostic) {
	if len(stack) == 0 {
		c.afterBuffering(newValue, endState, diagnostics)
		return
	}
	top := &stack[len(stack)-1]
	switch top.Kind {
	case NodeObject:
		top.Fields[currentKey] = newValue
		c.state = append(c.state, stateToNode{stack: stack, endState: endState})
	case NodeArray:
		top.Items = append(top.Items, newValue)
		c.state = append(c.state, stateToNode{stack: stack, currentKey: currentKey, hasKey: hasKey, endState: endState})
	}
}

func (c *ExpansionConverter) afterBuffering(node Node, endState toNodeEndState, diagnostics *[]Diagnostic) {
	switch endState {
	case toNodeEndStateContext:
		c.context[len(c.context)-1].refCount--
		context := ProcessContext(
			NewEmptyContext("", false),
			node,
			nil,
			false,
			true,
			ProcessingMode11,
			c.lenient,
			diagnostics,
		)
		c.context = append(c.context, contextStackEntry{context: context, refCount: 1})
		c.state = append(c.state, stateObjectStart{})
	}
}

func (c *ExpansionConverter) expandIRI(value string, documentRelative bool, vocab bool) (IdOrKeyword, bool) {
	return ExpandIRI(c.activeContext(), value, documentRelative, vocab, c.lenient)
}

func (c *ExpansionConverter) expandValue(value Value, events *[]Event) {
	*events = append(*events, ValueEvent(value, "", false, "", false))
}

func (c *ExpansionConverter) activeContext() *ActiveContext {
	return c.context[len(c.context)-1].context
}

func (c *ExpansionConverter) pushSameContext() {
	c.context[len(c.context)-1].refCount++
}

func (c *ExpansionConverter) popContext() {
	last := c.context[len(c.context)-1]
	last.refCount--
	if last.refCount > 0 {
		c.context[len(c.context)-1] = last
		return
	}
	c.context = c.context[:len(c.context)-1]
}

// ContextDepth returns the number of entries on the context stack. Callers
// writing property-based tests use this to check the context-stack
// integrity invariant: after a complete, well-formed document, it must be
// 1 with a refcount of 1.
func (c *ExpansionConverter) ContextDepth() int {
	return len(c.context)
}

// TopContextRefCount returns the refcount of the top-of-stack context
// entry, for the same integrity check as ContextDepth.
func (c *ExpansionConverter) TopContextRefCount() int {
	return c.context[len(c.context)-1].refCount
}
