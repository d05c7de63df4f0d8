package request

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

type Register struct {
	Email           string `validate:"required,email"                 json:"email"`
	FirstName       string `validate:"required,min=2"                 json:"firstName"`
	LastName        string `validate:"required,min=2"                 json:"lastName"`
	Password        string `validate:"required,min=8,max=16,password" json:"password"`
	ConfirmPassword string `validate:"required,eqfield=Password"      json:"confirmPassword"`
}

func (r Register) MarshalZerologObject(e *zerolog.Event) {
	e.Str("email", r.Email).Str("firstName", r.FirstName).Str("lastName", r.LastName)
}

func (r Register) MarshalJSON() ([]byte, error) {
	r.Password = "***"
	r.ConfirmPassword = "***"
	type R Register
	return json.Marshal(R(r))
}
