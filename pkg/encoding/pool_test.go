package encoding

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": true, "text": "declined"}))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":true,"text":"declined"}`, w.Body.String())
}

func TestWriteJSON_EncodingFailure(t *testing.T) {
	w := httptest.NewRecorder()
	err := WriteJSON(w, http.StatusOK, map[string]interface{}{"bad": make(chan int)})

	assert.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestEncodeJSON_ReturnsCopy(t *testing.T) {
	first, err := EncodeJSON(map[string]string{"redirect": "https://wpf.example/1"})
	require.NoError(t, err)
	second, err := EncodeJSON(map[string]string{"redirect": "https://wpf.example/2"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"redirect":"https://wpf.example/1"}`, string(first))
	assert.JSONEq(t, `{"redirect":"https://wpf.example/2"}`, string(second))
}
