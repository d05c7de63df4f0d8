package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type passwordHolder struct {
	Password string `validate:"required,min=8,max=16,password"`
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{name: "given all character classes should be valid", password: "Secr3t!pass", valid: true},
		{name: "given no symbol should be invalid", password: "Secr3tpass", valid: false},
		{name: "given no uppercase should be invalid", password: "secr3t!pass", valid: false},
		{name: "given no lowercase should be invalid", password: "SECR3T!PASS", valid: false},
		{name: "given no digit should be invalid", password: "Secret!pass", valid: false},
		{name: "given too short should be invalid", password: "S3c!a", valid: false},
		{name: "given too long should be invalid", password: "Secr3t!passwordtoolong", valid: false},
	}

	v := New()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := v.Struct(passwordHolder{Password: test.password})
			if test.valid {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
		})
	}
}
