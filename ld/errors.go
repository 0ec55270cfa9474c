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

import "fmt"

// ErrorCode is a stable identifier for a recognised expansion or context
// processing violation. Not every Diagnostic carries one: unsupported
// keywords and resource-exhaustion messages are reported code-less.
type ErrorCode string

const (
	InvalidLocalContext         ErrorCode = "invalid local context"
	InvalidContextNullification ErrorCode = "invalid context nullification"
	InvalidContextEntry         ErrorCode = "invalid context entry"
	InvalidVersionValue         ErrorCode = "invalid @version value"
	ProcessingModeConflict      ErrorCode = "processing mode conflict"
	InvalidBaseIRI              ErrorCode = "invalid base IRI"
	InvalidVocabMapping         ErrorCode = "invalid vocab mapping"
	InvalidTypeValue            ErrorCode = "invalid @type value"
	InvalidTypedValue           ErrorCode = "invalid typed value"
	InvalidValueObject          ErrorCode = "invalid value object"
	InvalidValueObjectValue     ErrorCode = "invalid value object value"
	InvalidLanguageTaggedString ErrorCode = "invalid language-tagged string"
	InvalidLanguageTaggedValue  ErrorCode = "invalid language-tagged value"
	CollidingKeywords           ErrorCode = "colliding keywords"
)

// Diagnostic is a non-fatal problem encountered while processing a context
// or expanding a document. Diagnostics never interrupt event emission; they
// accumulate in a caller-owned buffer alongside it.
type Diagnostic struct {
	Message string
	Code    ErrorCode
}

func (d Diagnostic) Error() string {
	if d.Code != "" {
		return fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return d.Message
}

// NewDiagnostic creates a code-less diagnostic, used for violations the
// W3C algorithms don't assign a dedicated error code (e.g. unsupported
// keywords, state stack overflow).
func NewDiagnostic(message string) Diagnostic {
	return Diagnostic{Message: message}
}

// NewCodedDiagnostic creates a diagnostic carrying one of the stable
// ErrorCode identifiers from the W3C algorithms.
func NewCodedDiagnostic(message string, code ErrorCode) Diagnostic {
	return Diagnostic{Message: message, Code: code}
}
