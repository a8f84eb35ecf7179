package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateStatus(t *testing.T) {
	tests := []struct {
		provider string
		want     Status
	}{
		{"approved", StatusPaid},
		{"pending", StatusPending},
		{"in_process", StatusPending},
		{"authorized", StatusPending},
		{"in_mediation", StatusPending},
		{"rejected", StatusFailed},
		{"cancelled", StatusCanceled},
		{"refunded", StatusRefunded},
		{"charged_back", StatusRefunded},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			assert.Equal(t, tt.want, TranslateStatus(tt.provider))
		})
	}
}

func TestTranslateStatusUnknownIsNeverFinal(t *testing.T) {
	for _, s := range []string{"", "some_new_status", "APPROVED"} {
		assert.Equal(t, StatusPending, TranslateStatus(s), "provider status %q", s)
	}
}
