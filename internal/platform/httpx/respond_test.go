package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name string `json:"name" validate:"required"`
}

func TestDecodeJSONRequiresJSONContentType(t *testing.T) {
	cases := map[string]int{
		"application/json":                  0,
		"application/json; charset=utf-8":   0,
		"application/merge-patch+json":      0,
		"text/plain":                        http.StatusUnsupportedMediaType,
		"application/x-www-form-urlencoded": http.StatusUnsupportedMediaType,
		"":                                  http.StatusUnsupportedMediaType,
	}
	for contentType, want := range cases {
		t.Run(contentType, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"crm"}`))
			if contentType != "" {
				req.Header.Set("Content-Type", contentType)
			}
			var p payload
			err := DecodeJSON(req, &p)
			if want == 0 {
				require.NoError(t, err)
				assert.Equal(t, "crm", p.Name)
				return
			}
			require.ErrorIs(t, err, ErrMediaType)
			assert.True(t, IsClientError(err))
			res := httptest.NewRecorder()
			RespondError(res, err)
			assert.Equal(t, want, res.Code)
		})
	}
}

func TestBindRejectsUnknownFieldsAndTrailingData(t *testing.T) {
	for _, body := range []string{`{"name":"a","extra":1}`, `{"name":"a"}{"name":"b"}`, ``} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		var p payload
		require.ErrorIs(t, Bind(req, &p), ErrValidation, body)
	}
}

func TestIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&bad=x&neg=-2&huge=99999999999999999999999", nil)
	assert.Equal(t, 3, IntQuery(req, "page", 1))
	assert.Equal(t, 1, IntQuery(req, "bad", 1))
	assert.Equal(t, 1, IntQuery(req, "neg", 1))
	assert.Equal(t, 1, IntQuery(req, "huge", 1))
	assert.Equal(t, 7, IntQuery(req, "missing", 7))
}
