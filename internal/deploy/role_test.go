package deploy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Role
		wantErr error
	}{
		{name: "primary upper", input: "PRIMARY", want: Primary},
		{name: "primary lower", input: "primary", want: Primary},
		{name: "primary mixed", input: "Primary", want: Primary},
		{name: "master alias", input: "master", want: Primary},
		{name: "secondary upper", input: "SECONDARY", want: Secondary},
		{name: "slave alias", input: "slave", want: Secondary},
		{name: "replica alias", input: "REPLICA", want: Secondary},
		{name: "with whitespace", input: "  secondary \n", want: Secondary},
		{name: "empty", input: "", want: Unknown, wantErr: ErrMissingValue},
		{name: "blank", input: "   ", want: Unknown, wantErr: ErrMissingValue},
		{name: "invalid", input: "STANDBY", want: Unknown, wantErr: ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPredicates(t *testing.T) {
	assert.True(t, Primary.IsPrimary())
	assert.False(t, Primary.IsSecondary())
	assert.True(t, Secondary.IsSecondary())
	assert.False(t, Secondary.IsPrimary())
	assert.False(t, Unknown.IsPrimary())
	assert.False(t, Unknown.IsSecondary())
}

func TestIsValid(t *testing.T) {
	assert.True(t, Primary.IsValid())
	assert.True(t, Secondary.IsValid())
	assert.False(t, Unknown.IsValid())
	assert.False(t, Role("").IsValid())
	assert.False(t, Role("primary").IsValid()) // 大小写敏感：规范形式为大写
}

func TestString(t *testing.T) {
	assert.Equal(t, "PRIMARY", Primary.String())
	assert.Equal(t, "SECONDARY", Secondary.String())
	assert.Equal(t, "UNKNOWN", Unknown.String())
}
