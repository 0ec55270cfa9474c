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
package ld_test

import (
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/oxld/ldexpand/ld"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExpansionConverter_EndToEnd drives a hand-built token stream
// (standing in for the external tokenizer this core expects) through the
// expansion state machine and projects every emitted Id/Value event onto
// the quad.Value an RDF serializer downstream would consume.
//
//	{
//	  "@context": {"@vocab": "http://schema.org/"},
//	  "@id": "http://example.org/jane",
//	  "@type": "Person",
//	  "name": "Jane Doe"
//	}
func TestExpansionConverter_EndToEnd(t *testing.T) {
	conv := ld.NewExpansionConverter("", false, false)

	tokens := []ld.Token{
		ld.StartObjectToken(),
		ld.ObjectKeyToken("@context"),
		ld.StartObjectToken(),
		ld.ObjectKeyToken("@vocab"),
		ld.StringToken("http://schema.org/"),
		ld.EndObjectToken(),
		ld.ObjectKeyToken("@id"),
		ld.StringToken("http://example.org/jane"),
		ld.ObjectKeyToken("@type"),
		ld.StringToken("Person"),
		ld.ObjectKeyToken("name"),
		ld.StringToken("Jane Doe"),
		ld.EndObjectToken(),
		ld.EOFToken(),
	}

	var events []ld.Event
	var diagnostics []ld.Diagnostic
	for _, tok := range tokens {
		conv.ConvertEvent(tok, &events, &diagnostics)
	}

	require.Empty(t, diagnostics)
	require.Len(t, events, 6)

	assert.Equal(t, ld.EventStartObject, events[0].Kind)
	assert.Equal(t, []string{"http://schema.org/Person"}, events[0].Types)

	assert.Equal(t, ld.EventID, events[1].Kind)
	assert.Equal(t, quad.IRI("http://example.org/jane"), ld.QuadValue(events[1]))

	assert.Equal(t, ld.EventStartProperty, events[2].Kind)
	assert.Equal(t, "http://schema.org/name", events[2].IRI)

	assert.Equal(t, ld.EventValue, events[3].Kind)
	assert.Equal(t, quad.String("Jane Doe"), ld.QuadValue(events[3]))

	assert.Equal(t, ld.EventEndProperty, events[4].Kind)
	assert.Equal(t, ld.EventEndObject, events[5].Kind)
}
