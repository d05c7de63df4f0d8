package request

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alturino/shopeasy/internal/validate"
)

func TestIntentValidation(t *testing.T) {
	tests := []struct {
		name  string
		input Intent
		valid bool
	}{
		{name: "add", input: Intent{Type: "add", ProductID: 1}, valid: true},
		{name: "subtract", input: Intent{Type: "subtract", ProductID: 20}, valid: true},
		{name: "remove", input: Intent{Type: "remove", ProductID: 3}, valid: true},
		{name: "set quantity", input: Intent{Type: "set_quantity", ProductID: 3, Quantity: 4}, valid: true},
		{name: "set quantity negative", input: Intent{Type: "set_quantity", ProductID: 3, Quantity: -1}, valid: true},
		{name: "set quantity zero", input: Intent{Type: "set_quantity", ProductID: 3}, valid: true},
		{name: "set quantity at max", input: Intent{Type: "set_quantity", ProductID: 3, Quantity: 9999}, valid: true},
		{name: "set quantity over max", input: Intent{Type: "set_quantity", ProductID: 3, Quantity: 10000}, valid: false},
		{name: "unknown type", input: Intent{Type: "checkout", ProductID: 1}, valid: false},
		{name: "missing type", input: Intent{ProductID: 1}, valid: false},
		{name: "zero product id", input: Intent{Type: "add"}, valid: false},
		{name: "negative product id", input: Intent{Type: "add", ProductID: -2}, valid: false},
	}

	v := validate.New()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := v.Struct(test.input)
			if test.valid {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
		})
	}
}
