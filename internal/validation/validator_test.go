package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybookapp/daybook-server/internal/domain"
	domainerrors "github.com/daybookapp/daybook-server/internal/errors"
)

func TestValidate_Entry(t *testing.T) {
	v := New()

	valid := domain.Entry{
		ID:   "ent-1",
		Body: "a fine day",
		Date: "2024-05-01",
	}
	assert.NoError(t, v.Validate(valid))
}

func TestValidate_EmptyBody(t *testing.T) {
	v := New()

	invalid := domain.Entry{ID: "ent-1", Date: "2024-05-01"}
	err := v.Validate(invalid)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	var domainErr *domainerrors.Error
	require.True(t, domainerrors.As(err, &domainErr))
	assert.Contains(t, domainErr.Details, "body")
}

func TestValidate_BadDate(t *testing.T) {
	v := New()

	tests := []struct {
		name string
		date string
		ok   bool
	}{
		{"valid", "2024-05-01", true},
		{"wrong separator", "2024/05/01", false},
		{"missing day", "2024-05", false},
		{"not a date", "soon", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := domain.Entry{ID: "ent-1", Body: "x", Date: tt.date}
			err := v.Validate(e)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
