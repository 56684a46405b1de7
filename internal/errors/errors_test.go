package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDatagroomError_Error(t *testing.T) {
	err := New(ErrCategoryArchive, CodeUploadFailed, "upload failed")
	expected := "[ARCHIVE:UPLOAD_FAILED] upload failed"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestDatagroomError_ErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCategoryArchive, CodeUploadFailed, "upload failed", cause)
	expected := "[ARCHIVE:UPLOAD_FAILED] upload failed: connection refused"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestDatagroomError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ErrCategoryStore, CodeWriteConflict, "conflict", cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap should allow errors.Is to find the cause")
	}
}

func TestDatagroomError_Is(t *testing.T) {
	err1 := New(ErrCategoryArchive, CodeUploadFailed, "first")
	err2 := New(ErrCategoryArchive, CodeUploadFailed, "second")
	err3 := New(ErrCategoryArchive, CodeDownloadFailed, "different code")

	if !errors.Is(err1, err2) {
		t.Error("errors with same category+code should match via Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match via Is")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		category  ErrorCategory
		code      string
		retryable bool
	}{
		{ErrCategoryArchive, CodeUploadFailed, true},
		{ErrCategoryArchive, CodeDownloadFailed, true},
		{ErrCategoryArchive, CodeObjectNotFound, false},
		{ErrCategoryParse, CodeModelUnavailable, true},
		{ErrCategoryParse, CodeBadModelReply, false},
		{ErrCategoryStore, CodeWriteConflict, false},
		{ErrCategoryStore, CodeDatasetNotFound, false},
		{ErrCategoryLoad, CodeMalformedCSV, false},
		{ErrCategoryValidation, CodeEmptyPrompt, false},
		{ErrCategoryInternal, CodeUnexpected, false},
	}

	for _, tt := range tests {
		err := New(tt.category, tt.code, "test")
		if IsRetryable(err) != tt.retryable {
			t.Errorf("%s:%s retryable=%v, want %v", tt.category, tt.code, IsRetryable(err), tt.retryable)
		}
	}
}

func TestGetCategory(t *testing.T) {
	err := New(ErrCategoryParse, CodeBadModelReply, "not json")
	if GetCategory(err) != ErrCategoryParse {
		t.Errorf("got %q, want %q", GetCategory(err), ErrCategoryParse)
	}
	if GetCategory(fmt.Errorf("plain error")) != "" {
		t.Error("non-DatagroomError should return empty category")
	}
}

func TestGetCode(t *testing.T) {
	err := New(ErrCategoryParse, CodeBadModelReply, "not json")
	if GetCode(err) != CodeBadModelReply {
		t.Errorf("got %q, want %q", GetCode(err), CodeBadModelReply)
	}
	if GetCode(fmt.Errorf("plain error")) != "" {
		t.Error("non-DatagroomError should return empty code")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(ErrCategoryValidation, CodeInvalidRules, "bad rules")
	detailed := err.WithDetails(map[string]interface{}{"rule": 3})

	if detailed.Details["rule"] != 3 {
		t.Error("WithDetails should set details")
	}
	// Original should be unmodified
	if err.Details != nil {
		t.Error("WithDetails should not modify original")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	cause := fmt.Errorf("io error")

	v := NewValidationError(CodeEmptyPrompt, "no prompt")
	if v.Category != ErrCategoryValidation || v.Code != CodeEmptyPrompt {
		t.Error("NewValidationError mismatch")
	}

	l := NewLoadError(CodeMalformedCSV, "ragged row", cause)
	if l.Category != ErrCategoryLoad || !errors.Is(l, cause) {
		t.Error("NewLoadError mismatch")
	}

	p := NewParseError(CodeModelUnavailable, "timeout", cause)
	if p.Category != ErrCategoryParse {
		t.Error("NewParseError mismatch")
	}

	s := NewStoreError(CodeStoreFailed, "insert failed", cause)
	if s.Category != ErrCategoryStore {
		t.Error("NewStoreError mismatch")
	}

	a := NewArchiveError(CodeUploadFailed, "s3 down", cause)
	if a.Category != ErrCategoryArchive || !errors.Is(a, cause) {
		t.Error("NewArchiveError mismatch")
	}

	c := NewConfigError("bad port")
	if c.Category != ErrCategoryConfig || c.Code != CodeInvalidConfig {
		t.Error("NewConfigError mismatch")
	}

	i := NewInternalError("unexpected", cause)
	if i.Category != ErrCategoryInternal || i.Code != CodeUnexpected {
		t.Error("NewInternalError mismatch")
	}
}
