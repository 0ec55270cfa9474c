package ld

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runTokens(tokens []Token) ([]Event, []Diagnostic, *ExpansionConverter) {
	conv := NewExpansionConverter("", false, false)
	var events []Event
	var diagnostics []Diagnostic
	for _, tok := range tokens {
		conv.ConvertEvent(tok, &events, &diagnostics)
	}
	return events, diagnostics, conv
}

// {"@value": "42", "@type": "http://www.w3.org/2001/XMLSchema#integer"}
func TestExpand_TypedLiteral(t *testing.T) {
	events, diagnostics, conv := runTokens([]Token{
		StartObjectToken(),
		ObjectKeyToken("@value"),
		StringToken("42"),
		ObjectKeyToken("@type"),
		StringToken("http://www.w3.org/2001/XMLSchema#integer"),
		EndObjectToken(),
		EOFToken(),
	})

	assert.Empty(t, diagnostics)
	require.Len(t, events, 1)
	assert.Equal(t, EventValue, events[0].Kind)
	assert.Equal(t, StringValue("42"), events[0].Value)
	assert.True(t, events[0].HasType)
	assert.Equal(t, "http://www.w3.org/2001/XMLSchema#integer", events[0].Type)
	assert.False(t, events[0].HasLang)
	assert.Equal(t, 1, conv.ContextDepth())
	assert.Equal(t, 1, conv.TopContextRefCount())
}

// {"@value": "bonjour", "@language": "fr"}
func TestExpand_LanguageTaggedString(t *testing.T) {
	events, diagnostics, conv := runTokens([]Token{
		StartObjectToken(),
		ObjectKeyToken("@value"),
		StringToken("bonjour"),
		ObjectKeyToken("@language"),
		StringToken("fr"),
		EndObjectToken(),
		EOFToken(),
	})

	assert.Empty(t, diagnostics)
	require.Len(t, events, 1)
	assert.Equal(t, StringValue("bonjour"), events[0].Value)
	assert.False(t, events[0].HasType)
	assert.True(t, events[0].HasLang)
	assert.Equal(t, "fr", events[0].Language)
	assert.Equal(t, 1, conv.ContextDepth())
}

// @type and @language cannot both apply to the same value object.
func TestExpand_TypeAndLanguageTogetherIsInvalid(t *testing.T) {
	_, diagnostics, _ := runTokens([]Token{
		StartObjectToken(),
		ObjectKeyToken("@value"),
		StringToken("bonjour"),
		ObjectKeyToken("@language"),
		StringToken("fr"),
		ObjectKeyToken("@type"),
		StringToken("http://ex/Datatype"),
		EndObjectToken(),
		EOFToken(),
	})

	require.Len(t, diagnostics, 1)
	assert.Equal(t, InvalidValueObject, diagnostics[0].Code)
}

// {"@value": "x", "@value": "y"}
func TestExpand_DuplicateValueKeywordIsInvalidValueObject(t *testing.T) {
	events, diagnostics, _ := runTokens([]Token{
		StartObjectToken(),
		ObjectKeyToken("@value"),
		StringToken("x"),
		ObjectKeyToken("@value"),
		StringToken("y"),
		EndObjectToken(),
		EOFToken(),
	})

	require.Len(t, diagnostics, 1)
	assert.Equal(t, InvalidValueObject, diagnostics[0].Code)
	require.Len(t, events, 1)
	assert.Equal(t, StringValue("x"), events[0].Value)
}

// {"@type": 3, "http://ex/p": "q"}
func TestExpand_InvalidTypeDoesNotAbortTheSurroundingObject(t *testing.T) {
	events, diagnostics, _ := runTokens([]Token{
		StartObjectToken(),
		ObjectKeyToken("@type"),
		NumberToken("3"),
		ObjectKeyToken("http://ex/p"),
		StringToken("q"),
		EndObjectToken(),
		EOFToken(),
	})

	require.Len(t, diagnostics, 1)
	assert.Equal(t, InvalidTypeValue, diagnostics[0].Code)

	require.Len(t, events, 5)
	assert.Equal(t, EventStartObject, events[0].Kind)
	assert.Empty(t, events[0].Types)
	assert.Equal(t, EventStartProperty, events[1].Kind)
	assert.Equal(t, "http://ex/p", events[1].IRI)
	assert.Equal(t, EventValue, events[2].Kind)
	assert.Equal(t, StringValue("q"), events[2].Value)
	assert.Equal(t, EventEndProperty, events[3].Kind)
	assert.Equal(t, EventEndObject, events[4].Kind)
}

// A second @id on the same node object is a colliding keyword; the last one
// read wins for the emitted Id event.
func TestExpand_CollidingKeywordsOnDuplicateID(t *testing.T) {
	events, diagnostics, _ := runTokens([]Token{
		StartObjectToken(),
		ObjectKeyToken("@id"),
		StringToken("http://ex/a"),
		ObjectKeyToken("@id"),
		StringToken("http://ex/b"),
		EndObjectToken(),
		EOFToken(),
	})

	require.Len(t, diagnostics, 1)
	assert.Equal(t, CollidingKeywords, diagnostics[0].Code)

	require.Len(t, events, 3)
	assert.Equal(t, EventStartObject, events[0].Kind)
	assert.Equal(t, EventID, events[1].Kind)
	assert.Equal(t, "http://ex/b", events[1].IRI)
	assert.Equal(t, EventEndObject, events[2].Kind)
}

// {"@context": {"@vocab": "http://ex/"}, "@id": "http://ex/s", "foo": "bar"}
func TestExpand_NodeWithIDAndVocabExpandedProperty(t *testing.T) {
	events, diagnostics, conv := runTokens([]Token{
		StartObjectToken(),
		ObjectKeyToken("@context"),
		StartObjectToken(),
		ObjectKeyToken("@vocab"),
		StringToken("http://ex/"),
		EndObjectToken(),
		ObjectKeyToken("@id"),
		StringToken("http://ex/s"),
		ObjectKeyToken("foo"),
		StringToken("bar"),
		EndObjectToken(),
		EOFToken(),
	})

	assert.Empty(t, diagnostics)
	require.Len(t, events, 6)
	assert.Equal(t, EventStartObject, events[0].Kind)
	assert.Equal(t, EventID, events[1].Kind)
	assert.Equal(t, "http://ex/s", events[1].IRI)
	assert.Equal(t, EventStartProperty, events[2].Kind)
	assert.Equal(t, "http://ex/foo", events[2].IRI)
	assert.Equal(t, EventValue, events[3].Kind)
	assert.Equal(t, StringValue("bar"), events[3].Value)
	assert.Equal(t, EventEndProperty, events[4].Kind)
	assert.Equal(t, EventEndObject, events[5].Kind)

	assert.Equal(t, 1, conv.ContextDepth())
	assert.Equal(t, 1, conv.TopContextRefCount())
}

// An @id following a property key (rather than preceding it) is read from
// the already-committed node-object state, and the Id event is emitted
// immediately rather than deferred to EndObject.
func TestExpand_IDAfterPropertyIsEmittedImmediately(t *testing.T) {
	events, diagnostics, _ := runTokens([]Token{
		StartObjectToken(),
		ObjectKeyToken("@context"),
		StartObjectToken(),
		ObjectKeyToken("@vocab"),
		StringToken("http://ex/"),
		EndObjectToken(),
		ObjectKeyToken("foo"),
		StringToken("bar"),
		ObjectKeyToken("@id"),
		StringToken("http://ex/s"),
		EndObjectToken(),
		EOFToken(),
	})

	assert.Empty(t, diagnostics)
	kinds := make([]EventKind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	assert.Equal(t, []EventKind{
		EventStartObject, EventStartProperty, EventValue, EventEndProperty, EventID, EventEndObject,
	}, kinds)
}

// Nested object with its own @context shadows the outer @vocab for the
// nested scope only; the outer scope's mapping applies again once the
// nested object closes.
func TestExpand_NestedContextOverrideIsScopedAndRestored(t *testing.T) {
	events, diagnostics, conv := runTokens([]Token{
		StartObjectToken(),
		ObjectKeyToken("@context"),
		StartObjectToken(),
		ObjectKeyToken("@vocab"),
		StringToken("http://outer/"),
		EndObjectToken(),
		ObjectKeyToken("child"),
		StartObjectToken(),
		ObjectKeyToken("@context"),
		StartObjectToken(),
		ObjectKeyToken("@vocab"),
		StringToken("http://inner/"),
		EndObjectToken(),
		ObjectKeyToken("foo"),
		StringToken("bar"),
		EndObjectToken(),
		ObjectKeyToken("foo"),
		StringToken("baz"),
		EndObjectToken(),
		EOFToken(),
	})

	assert.Empty(t, diagnostics)

	var propertyIRIs []string
	for _, e := range events {
		if e.Kind == EventStartProperty {
			propertyIRIs = append(propertyIRIs, e.IRI)
		}
	}
	require.Equal(t, []string{"http://outer/child", "http://inner/foo", "http://outer/foo"}, propertyIRIs)

	assert.Equal(t, 1, conv.ContextDepth())
	assert.Equal(t, 1, conv.TopContextRefCount())
}

// @type must be a string; a non-string @type is rejected and does not
// contribute to the node's type list.
func TestExpand_InvalidTypeValueIsRejected(t *testing.T) {
	events, diagnostics, _ := runTokens([]Token{
		StartObjectToken(),
		ObjectKeyToken("@type"),
		NumberToken("42"),
		EndObjectToken(),
		EOFToken(),
	})

	require.Len(t, diagnostics, 1)
	assert.Equal(t, InvalidTypeValue, diagnostics[0].Code)

	require.Len(t, events, 2)
	assert.Equal(t, EventStartObject, events[0].Kind)
	assert.Empty(t, events[0].Types)
	assert.Equal(t, EventEndObject, events[1].Kind)
}

// @type accepts an array of IRIs.
func TestExpand_TypeArray(t *testing.T) {
	events, diagnostics, _ := runTokens([]Token{
		StartObjectToken(),
		ObjectKeyToken("@type"),
		StartArrayToken(),
		StringToken("http://ex/A"),
		StringToken("http://ex/B"),
		EndArrayToken(),
		EndObjectToken(),
		EOFToken(),
	})

	assert.Empty(t, diagnostics)
	require.Len(t, events, 2)
	assert.Equal(t, []string{"http://ex/A", "http://ex/B"}, events[0].Types)
}

// Top-level arrays are flattened one element at a time with no wrapping
// event of their own.
func TestExpand_TopLevelArrayOfValues(t *testing.T) {
	events, diagnostics, conv := runTokens([]Token{
		StartArrayToken(),
		StringToken("a"),
		StringToken("b"),
		EndArrayToken(),
		EOFToken(),
	})

	assert.Empty(t, diagnostics)
	require.Len(t, events, 2)
	assert.Equal(t, StringValue("a"), events[0].Value)
	assert.Equal(t, StringValue("b"), events[1].Value)
	assert.Equal(t, 1, conv.ContextDepth())
	assert.Equal(t, 1, conv.TopContextRefCount())
}

// A reserved but unsupported keyword inside a value object is reported and
// the surrounding value object is otherwise unaffected.
func TestExpand_UnsupportedKeywordInsideValueObjectIsSkippedWithDiagnostic(t *testing.T) {
	events, diagnostics, _ := runTokens([]Token{
		StartObjectToken(),
		ObjectKeyToken("@value"),
		StringToken("x"),
		ObjectKeyToken("@nest"),
		StringToken("ignored"),
		EndObjectToken(),
		EOFToken(),
	})

	require.Len(t, diagnostics, 1)
	require.Len(t, events, 1)
	assert.Equal(t, StringValue("x"), events[0].Value)
}

// An empty node object with no @id still emits a balanced StartObject/EndObject pair.
func TestExpand_EmptyNodeObject(t *testing.T) {
	events, diagnostics, conv := runTokens([]Token{
		StartObjectToken(),
		EndObjectToken(),
		EOFToken(),
	})

	assert.Empty(t, diagnostics)
	require.Len(t, events, 2)
	assert.Equal(t, EventStartObject, events[0].Kind)
	assert.Equal(t, EventEndObject, events[1].Kind)
	assert.Equal(t, 1, conv.ContextDepth())
	assert.Equal(t, 1, conv.TopContextRefCount())
}

// Start/End events stay balanced even when a diagnostic forces part of the
// document through the skip states.
func TestExpand_EventsStayBalancedAcrossErrors(t *testing.T) {
	events, diagnostics, _ := runTokens([]Token{
		StartObjectToken(),
		ObjectKeyToken("@type"),
		NumberToken("7"),
		ObjectKeyToken("http://ex/p"),
		StartArrayToken(),
		StringToken("a"),
		StartObjectToken(),
		ObjectKeyToken("@value"),
		StartArrayToken(),
		StringToken("not allowed"),
		EndArrayToken(),
		EndObjectToken(),
		EndArrayToken(),
		EndObjectToken(),
		EOFToken(),
	})

	assert.NotEmpty(t, diagnostics)

	var startObjects, endObjects, startProperties, endProperties int
	for _, e := range events {
		switch e.Kind {
		case EventStartObject:
			startObjects++
		case EventEndObject:
			endObjects++
		case EventStartProperty:
			startProperties++
		case EventEndProperty:
			endProperties++
		}
	}
	assert.Equal(t, startObjects, endObjects)
	assert.Equal(t, startProperties, endProperties)
}

// Injecting an error into a later position never loses events already
// emitted for earlier positions.
func TestExpand_ErrorsDoNotReduceEarlierEvents(t *testing.T) {
	prefix := []Token{
		StartObjectToken(),
		ObjectKeyToken("http://ex/p"),
		StringToken("q"),
	}
	clean := append(append([]Token{}, prefix...), EndObjectToken(), EOFToken())
	faulty := append(append([]Token{}, prefix...),
		ObjectKeyToken("@type"), NumberToken("3"),
		EndObjectToken(), EOFToken())

	cleanEvents, cleanDiagnostics, _ := runTokens(clean)
	faultyEvents, faultyDiagnostics, _ := runTokens(faulty)

	assert.Empty(t, cleanDiagnostics)
	assert.NotEmpty(t, faultyDiagnostics)
	require.GreaterOrEqual(t, len(faultyEvents), 3)
	assert.Equal(t, cleanEvents[:3], faultyEvents[:3])
}

// Nesting past the state stack cap produces a diagnostic per dropped token
// instead of growing the stack without bound.
func TestExpand_StateStackDepthGuard(t *testing.T) {
	conv := NewExpansionConverter("", false, false)
	var events []Event
	var diagnostics []Diagnostic
	for i := 0; i < 5000; i++ {
		conv.ConvertEvent(StartArrayToken(), &events, &diagnostics)
	}

	require.NotEmpty(t, diagnostics)
	assert.Equal(t, "too large state stack", diagnostics[0].Message)
	assert.Empty(t, events)
}

func TestExpand_IsEndTracksEOF(t *testing.T) {
	conv := NewExpansionConverter("", false, false)
	var events []Event
	var diagnostics []Diagnostic
	assert.False(t, conv.IsEnd())
	conv.ConvertEvent(NullToken(), &events, &diagnostics)
	assert.False(t, conv.IsEnd())
	conv.ConvertEvent(EOFToken(), &events, &diagnostics)
	assert.True(t, conv.IsEnd())
}
