package model

import (
	"errors"
	"sort"
	"strings"
)

// User facing validation messages.
const (
	MsgRequired         = "Ce champ est requis"
	MsgTitleRequired    = "Le titre est requis"
	MsgPasswordMismatch = "Les mots de passe ne correspondent pas"
	MsgInvalidValue     = "Valeur invalide"
)

// ErrValidation matches every *ValidationError with errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError maps field names to messages. It is raised before any
// network call.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type validation struct {
	fields map[string]string
}

func newValidation() *validation {
	return &validation{fields: map[string]string{}}
}

func (v *validation) require(field, value string) {
	v.requireMsg(field, value, MsgRequired)
}

func (v *validation) requireMsg(field, value, msg string) {
	if strings.TrimSpace(value) == "" {
		v.fail(field, msg)
	}
}

func (v *validation) fail(field, msg string) {
	if _, exists := v.fields[field]; !exists {
		v.fields[field] = msg
	}
}

func (v *validation) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}
