package realtime_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/convitepro/realtime-go/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckValidHTTPResponse(t *testing.T) {
	assert.NoError(t, realtime.CheckValidHTTPResponse(http.StatusOK, "application/json", nil))

	tests := map[string]struct {
		status      int
		contentType string
		body        string
		code        realtime.ErrorCode
		message     string
	}{
		"error field": {
			status:      http.StatusInternalServerError,
			contentType: "application/json",
			body:        `{"success": false, "error": "Erro ao verificar atualizações"}`,
			code:        realtime.ErrInternalError,
			message:     "Erro ao verificar atualizações",
		},
		"message field": {
			status:      http.StatusBadRequest,
			contentType: "application/json",
			body:        `{"message": "Papel não definido"}`,
			code:        realtime.ErrBadRequest,
			message:     "Papel não definido",
		},
		"html body": {
			status:      http.StatusNotFound,
			contentType: "text/html",
			body:        `<h1>Not Found</h1>`,
			code:        realtime.ErrNotFound,
			message:     "Not Found",
		},
		"empty body": {
			status:  http.StatusForbidden,
			code:    realtime.ErrForbidden,
			message: "Forbidden",
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := realtime.CheckValidHTTPResponse(test.status, test.contentType, []byte(test.body))
			var info *realtime.ErrorInfo
			require.True(t, errors.As(err, &info), "got %v", err)
			assert.Equal(t, test.code, info.Code)
			assert.Equal(t, test.status, info.StatusCode)
			assert.Equal(t, test.message, info.Message())
		})
	}
}

func TestErrorInfoString(t *testing.T) {
	err := realtime.CheckValidHTTPResponse(http.StatusUnauthorized, "application/json", []byte(`{"error": "Não autenticado"}`))
	assert.Equal(t, "[ErrorInfo :Não autenticado code=40100 statusCode=401]", err.Error())
	assert.Equal(t, "unauthorized", realtime.ErrUnauthorized.String())
}
