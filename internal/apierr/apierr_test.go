package apierr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus_KnownCodes(t *testing.T) {
	assert.Equal(t, 422, HTTPStatus(CodeValidation))
	assert.Equal(t, 422, HTTPStatus(CodeSchema))
	assert.Equal(t, 499, HTTPStatus(CodeCancelled))
}

func TestHTTPStatus_UnknownCodeDefaultsTo500(t *testing.T) {
	assert.Equal(t, 500, HTTPStatus(Code("NOT_A_REAL_CODE")))
}

func TestError_ToEnvelope(t *testing.T) {
	err := Newf(CodeValidation, "missing field %s", "cart_total").
		WithDetails(map[string]any{"path": "$.cart_total"})

	env := err.ToEnvelope()
	assert.Equal(t, CodeValidation, env.Code)
	assert.Equal(t, "missing field cart_total", env.Message)
	assert.Equal(t, "$.cart_total", env.Details["path"])
}

func TestError_ImplementsErrorInterface(t *testing.T) {
	var err error = New(CodeCancelled, "aborted before aggregation")
	assert.EqualError(t, err, "CANCELLED: aborted before aggregation")
}
