// Package errors provides error classification helpers for metrics tagging
// and for the retry manager's transient/permanent decision.
package errors

import (
	"context"
	goerrors "errors"
	"net"
	"reflect"
	"strings"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
)

// Classify returns a normalized error type name suitable for tagging
// metrics/logs. It unwraps errors until the innermost concrete type is found
// and converts it to a snake_case-ish label.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}

// transienter is implemented by errors that know their own retry class
// (the accounting client's submission errors).
type transienter interface {
	Transient() bool
}

// ClassifySubmission maps a record-submission error to the retry class the
// retry manager acts on. Network timeouts and cancelled contexts are
// transient; errors that self-report take precedence; anything unclassified
// is treated as transient so a flaky dependency gets its retry budget.
func ClassifySubmission(err error) model.ErrorClass {
	if err == nil {
		return ""
	}

	var t transienter
	if goerrors.As(err, &t) {
		if t.Transient() {
			return model.ErrorClassTransient
		}
		return model.ErrorClassPermanent
	}

	var netErr net.Error
	if goerrors.As(err, &netErr) && netErr.Timeout() {
		return model.ErrorClassTransient
	}
	if goerrors.Is(err, context.DeadlineExceeded) {
		return model.ErrorClassTransient
	}

	return model.ErrorClassTransient
}
