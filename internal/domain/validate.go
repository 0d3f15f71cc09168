package domain

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Field rules shared by inserts and patches. A patch applies the rule only
// to fields it carries; an insert additionally requires name and text.
const (
	ruleName      = "min=1"
	ruleText      = "min=1"
	ruleType      = "oneof=Teacher Student None"
	ruleTimestamp = "gte=0"
)

var (
	fieldValidator     *validator.Validate
	fieldValidatorOnce sync.Once
)

func validate() *validator.Validate {
	fieldValidatorOnce.Do(func() {
		fieldValidator = validator.New()
	})

	return fieldValidator
}

// CreateInput is an untrusted insert payload. Nil means the field was absent.
type CreateInput struct {
	Name      *string `json:"name"`
	Text      *string `json:"text"`
	Type      *string `json:"type"`
	Timestamp *int64  `json:"timestamp"`
}

// PatchInput is an untrusted partial update payload.
type PatchInput struct {
	Name      *string `json:"name"`
	Text      *string `json:"text"`
	Type      *string `json:"type"`
	Timestamp *int64  `json:"timestamp"`
}

// NewQuoteDraft validates in and fills defaults: type None and timestamp now.
// Every violated field is reported, not only the first.
func NewQuoteDraft(in CreateInput, now time.Time) (QuoteDraft, error) {
	var c checker

	c.require("name", in.Name)
	c.require("text", in.Text)
	c.str("name", in.Name, ruleName)
	c.str("text", in.Text, ruleText)
	c.str("type", in.Type, ruleType)
	c.int("timestamp", in.Timestamp, ruleTimestamp)

	if err := c.err(); err != nil {
		return QuoteDraft{}, err
	}

	draft := QuoteDraft{
		Name:      *in.Name,
		Text:      *in.Text,
		Type:      RoleNone,
		Timestamp: now.UnixMilli(),
	}
	if in.Type != nil {
		draft.Type = Role(*in.Type)
	}
	if in.Timestamp != nil {
		draft.Timestamp = *in.Timestamp
	}

	return draft, nil
}

// NewQuotePatch validates only the fields present in in.
func NewQuotePatch(in PatchInput) (QuotePatch, error) {
	var c checker

	c.str("name", in.Name, ruleName)
	c.str("text", in.Text, ruleText)
	c.str("type", in.Type, ruleType)
	c.int("timestamp", in.Timestamp, ruleTimestamp)

	if err := c.err(); err != nil {
		return QuotePatch{}, err
	}

	patch := QuotePatch{
		Name:      in.Name,
		Text:      in.Text,
		Timestamp: in.Timestamp,
	}
	if in.Type != nil {
		role := Role(*in.Type)
		patch.Type = &role
	}

	return patch, nil
}

// checker accumulates field violations; at most one per field.
type checker struct {
	violations []FieldViolation
	seen       map[string]bool
}

func (c *checker) add(field, msg string) {
	if c.seen[field] {
		return
	}
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}

	c.seen[field] = true
	c.violations = append(c.violations, FieldViolation{Field: field, Message: msg})
}

func (c *checker) require(field string, v *string) {
	if v == nil {
		c.add(field, "this field is required")
	}
}

func (c *checker) str(field string, v *string, rule string) {
	if v == nil {
		return
	}

	c.check(field, validate().Var(*v, rule))
}

func (c *checker) int(field string, v *int64, rule string) {
	if v == nil {
		return
	}

	c.check(field, validate().Var(*v, rule))
}

func (c *checker) check(field string, err error) {
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		c.add(field, violationMessage(fieldErrs[0]))
		return
	}

	c.add(field, err.Error())
}

func (c *checker) err() error {
	if len(c.violations) == 0 {
		return nil
	}

	return &ValidationError{Violations: c.violations}
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}

	return "failed validation: " + fe.Tag()
}
