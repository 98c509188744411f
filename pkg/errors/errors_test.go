package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SynthonScope/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Construction
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"parse failure", errors.ErrCodeParseFailure, "unexpected character ')'"},
		{"empty input", errors.ErrCodeEmptyInput, "SMILES must not be empty"},
		{"internal", errors.CodeInternal, "unexpected failure"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ae := errors.New(tc.code, tc.message)
			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
			assert.NotEmpty(t, ae.Stack)
		})
	}
}

func TestError_Format(t *testing.T) {
	ae := errors.New(errors.ErrCodeParseFailure, "unclosed ring bond")
	assert.Equal(t, "[CHEM_001] unclosed ring bond", ae.Error())

	withDetail := ae.WithDetail("ring=1")
	assert.Equal(t, "[CHEM_001] unclosed ring bond: ring=1", withDetail.Error())
	assert.Empty(t, ae.Detail, "WithDetail must not mutate the receiver")

	wrapped := errors.Wrap(fmt.Errorf("boom"), errors.ErrCodeDatabaseError, "save analysis")
	assert.Equal(t, "[COMMON_012] save analysis: boom", wrapped.Error())
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "ignored"))
}

func TestWrap_UnknownPreservesInnerCode(t *testing.T) {
	inner := errors.New(errors.ErrCodeSanitizationFailure, "valence")
	outer := errors.Wrap(inner, errors.CodeUnknown, "parse molecule")
	assert.Equal(t, errors.ErrCodeSanitizationFailure, outer.Code)
}

func TestIsCode_TraversesChain(t *testing.T) {
	inner := errors.New(errors.ErrCodeEmptyInput, "empty")
	mid := fmt.Errorf("context: %w", inner)
	outer := errors.Wrap(mid, errors.ErrCodeAnalysisFailed, "analyze")

	assert.True(t, errors.IsCode(outer, errors.ErrCodeAnalysisFailed))
	assert.True(t, errors.IsCode(outer, errors.ErrCodeEmptyInput))
	assert.False(t, errors.IsCode(outer, errors.ErrCodeParseFailure))
	assert.False(t, errors.IsCode(nil, errors.ErrCodeParseFailure))
	assert.True(t, stderrors.Is(outer, inner))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(fmt.Errorf("plain")))
	assert.Equal(t, errors.ErrCodeParseFailure, errors.GetCode(errors.New(errors.ErrCodeParseFailure, "x")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, errors.IsNotFound(errors.NotFound("x")))
	assert.True(t, errors.IsNotFound(errors.New(errors.ErrCodeAnalysisNotFound, "x")))
	assert.False(t, errors.IsNotFound(errors.InvalidParam("x")))
}

func TestWithCause_NilSafe(t *testing.T) {
	var ae *errors.AppError
	assert.Nil(t, ae.WithCause(fmt.Errorf("x")))
	assert.Nil(t, ae.WithDetail("x"))
}

//Personal.AI order the ending
