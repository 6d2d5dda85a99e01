package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/setusher/PenthouseProtocol/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindInvest(t *testing.T, body string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	SetupValidator()

	bound := false
	router := gin.New()
	router.POST("/invest", func(c *gin.Context) {
		var req dto.InvestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		bound = true
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/invest", strings.NewReader(body)))
	return w, bound
}

func TestSetupValidator_LedgerAccount(t *testing.T) {
	tests := []struct {
		name    string
		account string
		valid   bool
	}{
		{"shard realm num", "0.0.2002", true},
		{"large numbers", "1.2.123456789", true},
		{"missing part", "0.2002", false},
		{"evm address", "0x00000000000000000000000000000000000007d2", false},
		{"trailing text", "0.0.2002-abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, bound := bindInvest(t, `{"units":1,"payer_account":"`+tt.account+`"}`)
			assert.Equal(t, tt.valid, bound)
			if !tt.valid {
				assert.Equal(t, http.StatusBadRequest, w.Code)
			}
		})
	}
}

func TestFormatValidationErrors_UsesJSONFieldNames(t *testing.T) {
	w, bound := bindInvest(t, `{"units":0,"payer_account":"nope"}`)
	require.False(t, bound)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "This field is required", fields["units"])
	assert.Equal(t, "Must be a ledger account id like 0.0.1234", fields["payer_account"])
}

func TestFormatValidationErrors_NonValidationError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-1")

	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
}
