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

// ProcessingMode selects which revision of the JSON-LD algorithms a
// Context is processed under. The only observable effect in this core is
// whether explicit @version and @import members are accepted.
type ProcessingMode int

const (
	ProcessingMode10 ProcessingMode = iota
	ProcessingMode11
)

// TermDefinition is the binding a term name resolves to inside an
// ActiveContext. An IRIMapping starting with "@" denotes a keyword alias;
// this core never creates such aliases itself (term definition creation is
// out of scope) but recognises one if present.
type TermDefinition struct {
	IRIMapping    string
	HasIRIMapping bool
	Prefix        bool
	Protected     bool
}

// ActiveContext is the lexical scope that governs how keys and string
// values expand to IRIs or keywords. PreviousContext chains to the scope
// that was active before a non-propagating context was entered, so it can
// be restored without the converter needing to keep its own shadow stack.
type ActiveContext struct {
	BaseIRI              string
	HasBaseIRI           bool
	OriginalBaseURL      string
	HasOriginalBaseURL   bool
	VocabularyMapping    string
	HasVocabularyMapping bool
	DefaultLanguage      string
	HasDefaultLanguage   bool
	TermDefinitions      map[string]TermDefinition
	PreviousContext      *ActiveContext
}

// NewEmptyContext creates the context rooted at the given base IRI, with
// no vocabulary mapping, no language and no term definitions. This is the
// context every ExpansionConverter starts from, and the context a null
// local context resets to.
func NewEmptyContext(originalBaseURL string, hasOriginalBaseURL bool) *ActiveContext {
	return &ActiveContext{
		BaseIRI:            originalBaseURL,
		HasBaseIRI:         hasOriginalBaseURL,
		OriginalBaseURL:    originalBaseURL,
		HasOriginalBaseURL: hasOriginalBaseURL,
		TermDefinitions:    map[string]TermDefinition{},
	}
}

// Clone makes a shallow copy of the context with its own term definition
// map, so mutating the clone's terms never affects the original. The
// PreviousContext chain is shared, not copied, matching the original
// implementation's use of an owned, never-mutated chain.
func (c *ActiveContext) Clone() *ActiveContext {
	termDefinitions := make(map[string]TermDefinition, len(c.TermDefinitions))
	for name, def := range c.TermDefinitions {
		termDefinitions[name] = def
	}
	clone := *c
	clone.TermDefinitions = termDefinitions
	return &clone
}

// ProcessContext implements the subset of the Context Processing Algorithm
// (https://www.w3.org/TR/json-ld-api/#context-processing-algorithm) this
// core supports: @version, @base, @vocab, @propagate and null
// nullification. Generic term definitions, @import and remote (string)
// contexts are recognised but not processed; see the Non-goals in the
// package-level design notes. Violations never abort; they're appended to
// diagnostics and processing continues with the best available result.
//
// remoteContexts lists the remote context URLs already visited on the way
// to this local context; @base is only applicable when it is empty.
func ProcessContext(
	activeContext *ActiveContext,
	localContext Node,
	remoteContexts []string,
	overrideProtected bool,
	propagate bool,
	mode ProcessingMode,
	lenient bool,
	diagnostics *[]Diagnostic,
) *ActiveContext {
	// 1) Initialize result to the result of cloning active context.
	result := activeContext.Clone()

	// 2) If local context is an object containing @propagate, propagate
	// must be set to that value.
	if fields, isObject := localContext.AsObject(); isObject {
		if propagateNode, present := fields["@propagate"]; present {
			if propagateNode.Kind == NodeBoolean {
				propagate = propagateNode.Bool
			} else {
				*diagnostics = append(*diagnostics, NewDiagnostic("@propagate value must be a boolean"))
			}
		}
	}

	// 3) If propagate is false and result does not have a previous
	// context, set result.previousContext to a copy of active context.
	if !propagate && result.PreviousContext == nil {
		result.PreviousContext = activeContext.Clone()
	}

	// 4) If local context is not an array, set it to an array containing
	// only local context.
	var contexts []Node
	if items, isArray := localContext.AsArray(); isArray {
		contexts = items
	} else {
		contexts = []Node{localContext}
	}

	// 5) For each item context in local context:
	for _, context := range contexts {
		switch context.Kind {
		case NodeNull:
			// 5.1) If override protected is false and active context
			// contains protected terms, report one diagnostic per
			// protected term, then reset to an empty context.
			if !overrideProtected {
				for name, def := range activeContext.TermDefinitions {
					if def.Protected {
						*diagnostics = append(*diagnostics, NewCodedDiagnostic(
							"definition of "+name+" would be overridden even though it's protected",
							InvalidContextNullification,
						))
					}
				}
			}
			result = NewEmptyContext(activeContext.OriginalBaseURL, activeContext.HasOriginalBaseURL)
			continue
		case NodeString:
			// Remote context dereferencing is out of scope for this core.
			*diagnostics = append(*diagnostics, NewCodedDiagnostic(
				"remote contexts are not supported", InvalidLocalContext,
			))
			continue
		case NodeNumber, NodeBoolean, NodeArray:
			*diagnostics = append(*diagnostics, NewCodedDiagnostic(
				"@context value must be null, a string or an object", InvalidLocalContext,
			))
			continue
		}

		fields, _ := context.AsObject()
		for key, value := range fields {
			switch key {
			case "@version":
				processVersionEntry(value, mode, diagnostics)
			case "@import":
				if mode == ProcessingMode10 {
					*diagnostics = append(*diagnostics, NewCodedDiagnostic(
						"@import is only supported in JSON-LD 1.1", InvalidContextEntry,
					))
				}
				// @import resolution itself is out of scope.
			case "@base":
				if len(remoteContexts) == 0 {
					processBaseEntry(result, value, lenient, diagnostics)
				}
			case "@vocab":
				processVocabEntry(result, value, lenient, diagnostics)
			case "@language", "@direction", "@propagate":
				// Recognised but unimplemented: no default language,
				// base direction or per-entry propagate support in this
				// core. See the open questions in the design notes.
			case "@protected":
				// No semantic effect at this level; protection is only
				// meaningful once term definitions are created.
			default:
				// Reserved for generic term definition processing, which
				// this core does not implement.
			}
		}
	}

	// 6)
	return result
}

func processVersionEntry(value Node, mode ProcessingMode, diagnostics *[]Diagnostic) {
	if value.Kind != NodeNumber || value.Text != "1.1" {
		*diagnostics = append(*diagnostics, NewCodedDiagnostic(
			"the only supported @version value is 1.1", InvalidVersionValue,
		))
	}
	if mode == ProcessingMode10 {
		*diagnostics = append(*diagnostics, NewCodedDiagnostic(
			"@version is only supported in JSON-LD 1.1", ProcessingModeConflict,
		))
	}
}

func processBaseEntry(result *ActiveContext, value Node, lenient bool, diagnostics *[]Diagnostic) {
	switch value.Kind {
	case NodeNull:
		result.BaseIRI = ""
		result.HasBaseIRI = false
	case NodeString:
		if lenient {
			result.BaseIRI = resolveIRIUnchecked(result, value.Text)
			result.HasBaseIRI = true
			return
		}
		if !result.HasBaseIRI {
			// No base to resolve against: the value must be absolute.
			if !looksLikeAbsoluteIRI(value.Text) {
				*diagnostics = append(*diagnostics, NewCodedDiagnostic(
					"invalid @base '"+value.Text+"': not an absolute IRI", InvalidBaseIRI,
				))
				return
			}
			result.BaseIRI = value.Text
			result.HasBaseIRI = true
			return
		}
		resolved, err := resolveIRIChecked(result, value.Text)
		if err != nil {
			*diagnostics = append(*diagnostics, NewCodedDiagnostic(
				"invalid @base '"+value.Text+"': "+err.Error(), InvalidBaseIRI,
			))
			return
		}
		result.BaseIRI = resolved
		result.HasBaseIRI = true
	default:
		*diagnostics = append(*diagnostics, NewCodedDiagnostic(
			"@base value must be a string", InvalidBaseIRI,
		))
	}
}

func processVocabEntry(result *ActiveContext, value Node, lenient bool, diagnostics *[]Diagnostic) {
	switch value.Kind {
	case NodeNull:
		result.VocabularyMapping = ""
		result.HasVocabularyMapping = false
	case NodeString:
		if isBlankNodeLabel(value.Text) || lenient {
			result.VocabularyMapping = value.Text
			result.HasVocabularyMapping = true
			return
		}
		if !looksLikeAbsoluteIRI(value.Text) {
			*diagnostics = append(*diagnostics, NewCodedDiagnostic(
				"invalid @vocab '"+value.Text+"'", InvalidVocabMapping,
			))
			return
		}
		result.VocabularyMapping = value.Text
		result.HasVocabularyMapping = true
	default:
		*diagnostics = append(*diagnostics, NewCodedDiagnostic(
			"@vocab value must be a string", InvalidVocabMapping,
		))
	}
}

func isBlankNodeLabel(s string) bool {
	return len(s) >= 2 && s[0] == '_' && s[1] == ':'
}
