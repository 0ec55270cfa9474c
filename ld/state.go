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

// expansionState is one frame of the converter's explicit state stack. It
// stands in for the call stack a recursive expansion algorithm would use:
// each variant captures exactly the local variables a recursive call would
// otherwise hold while waiting on a nested value.
type expansionState interface {
	isExpansionState()
}

type stateElement struct{}
type stateElementArray struct{}

func (stateElement) isExpansionState()      {}
func (stateElementArray) isExpansionState() {}

// stateObjectStart is the state right after StartObject: the converter
// hasn't yet decided whether the object is a value object, a node object,
// or empty.
type stateObjectStart struct {
	types []string
	id    string
	hasID bool
}

func (stateObjectStart) isExpansionState() {}

type stateObjectType struct {
	types []string
	id    string
	hasID bool
}
type stateObjectTypeArray struct {
	types []string
	id    string
	hasID bool
}

func (stateObjectType) isExpansionState()      {}
func (stateObjectTypeArray) isExpansionState() {}

// stateObjectID reads the scalar value following an @id key. fromStart
// records whether the StartObject event has been emitted yet: true while
// still inside the object's opening phase, false once a node object has
// been committed to and a later @id key is read from inside it.
type stateObjectID struct {
	types     []string
	id        string
	hasID     bool
	fromStart bool
}

func (stateObjectID) isExpansionState() {}

// stateObject is the steady state of a committed node object: inProperty
// tracks whether an EndProperty must be emitted before the next key is
// processed.
type stateObject struct {
	inProperty bool
}

func (stateObject) isExpansionState() {}

// stateValue is the steady state of a committed value object (one that
// saw @value), collecting the sibling @type/@language keys.
type stateValue struct {
	typ      string
	hasType  bool
	value    Value
	hasValue bool
	language string
	hasLang  bool
}

func (stateValue) isExpansionState() {}

type stateValueValue struct {
	typ      string
	hasType  bool
	language string
	hasLang  bool
}
type stateValueLanguage struct {
	typ      string
	hasType  bool
	value    Value
	hasValue bool
}
type stateValueType struct {
	value    Value
	hasValue bool
	language string
	hasLang  bool
}

func (stateValueValue) isExpansionState()    {}
func (stateValueLanguage) isExpansionState() {}
func (stateValueType) isExpansionState()     {}

// toNodeEndState names what to do once a buffered subtree is complete.
type toNodeEndState int

const (
	toNodeEndStateContext toNodeEndState = iota
)

// stateToNode buffers an arbitrary JSON subtree (currently only used for
// @context values) into a stack of partial Node values, mirroring what a
// recursive JSON parser would build on its call stack.
type stateToNode struct {
	stack      []Node
	currentKey string
	hasKey     bool
	endState   toNodeEndState
}

func (stateToNode) isExpansionState() {}

// stateSkip and stateSkipArray discard one value (or one array's worth of
// values) without emitting events, used to keep the token stream balanced
// after a diagnostic.
type stateSkip struct{}
type stateSkipArray struct{}

func (stateSkip) isExpansionState()      {}
func (stateSkipArray) isExpansionState() {}
