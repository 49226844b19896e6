package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type bindTarget struct {
	CaseID string `json:"case_id"`
	Amount string `json:"amount"`
}

func TestBindNestedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		key         string
		body        string
		expected    bindTarget
		expectError bool
	}{
		{
			name:     "wrapped payload",
			key:      "payment",
			body:     `{"payment": {"case_id": "c-1", "amount": "250.00"}}`,
			expected: bindTarget{CaseID: "c-1", Amount: "250.00"},
		},
		{
			name:     "flat payload",
			key:      "payment",
			body:     `{"case_id": "c-2", "amount": "10.50"}`,
			expected: bindTarget{CaseID: "c-2", Amount: "10.50"},
		},
		{
			name:     "wrapper key absent falls back to flat",
			key:      "payment",
			body:     `{"other": true, "case_id": "c-3", "amount": "5"}`,
			expected: bindTarget{CaseID: "c-3", Amount: "5"},
		},
		{
			name:        "wrapped payload with wrong field type",
			key:         "payment",
			body:        `{"payment": {"case_id": "c-4", "amount": 99}}`,
			expectError: true,
		},
		{
			name:        "wrapper key holds a non-object",
			key:         "payment",
			body:        `{"payment": "not an object"}`,
			expectError: true,
		},
		{
			name:        "body is not JSON",
			key:         "payment",
			body:        `not json at all`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var result bindTarget
			err := BindNestedOrFlat(c, tt.key, &result)

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}
