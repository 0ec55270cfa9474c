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

import (
	"strconv"
	"strings"

	"github.com/cayleygraph/quad"
)

// QuadValue converts a single ID or Value event into the quad.Value the
// downstream triple/quad serializer this core hands off to would need.
// Building full graphs out of an event stream (subject tracking, list and
// @graph handling, node-map merging) is RDF conversion proper and stays
// with that external collaborator; this helper only covers the leaf
// mapping every such consumer needs, so it doesn't have to reimplement
// the identical value-object projection rules in every sink.
func QuadValue(event Event) quad.Value {
	switch event.Kind {
	case EventID:
		return IRIOrBlankNode(event.IRI)
	case EventValue:
		return literalQuadValue(event.Value, event.Type, event.HasType, event.Language, event.HasLang)
	default:
		return nil
	}
}

// IRIOrBlankNode maps an already-expanded @id string to quad.BNode when it
// is a blank node label ("_:...") or quad.IRI otherwise.
func IRIOrBlankNode(id string) quad.Value {
	if strings.HasPrefix(id, "_:") {
		return quad.BNode(strings.TrimPrefix(id, "_:"))
	}
	return quad.IRI(id)
}

func literalQuadValue(value Value, typ string, hasType bool, lang string, hasLang bool) quad.Value {
	lexical := valueLexical(value)
	switch {
	case hasLang:
		return quad.LangString{Value: quad.String(lexical), Lang: lang}
	case hasType:
		return quad.TypedString{Value: quad.String(lexical), Type: quad.IRI(typ)}
	default:
		return quad.String(lexical)
	}
}

// valueLexical renders a Value's scalar the way a JSON-LD value object's
// @value member would be serialized back to a string: numbers and booleans
// keep their lexical JSON text.
func valueLexical(value Value) string {
	switch value.Kind {
	case ValueString, ValueNumber:
		return value.Text
	case ValueBoolean:
		return strconv.FormatBool(value.Bool)
	default:
		return ""
	}
}
