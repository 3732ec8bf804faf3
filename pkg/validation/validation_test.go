package validation

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name     string   `json:"full_name" validate:"required,max=10"`
	Gender   string   `json:"gender" validate:"omitempty,oneofci=male female other"`
	Born     string   `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02,pastdate"`
	Email    string   `json:"email" validate:"omitempty,email"`
	Site     string   `json:"website" validate:"omitempty,http_url"`
	Year     int      `json:"registration_year" validate:"min=1950,pastyear"`
	Langs    []string `json:"language_ids" validate:"required,min=1,dive,uuid"`
	Internal string   `json:"-" validate:"max=3"`
}

func valid() signup {
	return signup{
		Name:  "Asha",
		Year:  2010,
		Langs: []string{"6f1c1f3e-1f57-4c69-9d3c-2f55a1f6c0a1"},
	}
}

func TestStruct(t *testing.T) {
	next := strconv.Itoa(time.Now().Year() + 1)
	nextYear, _ := strconv.Atoi(next)

	tests := []struct {
		name   string
		mutate func(*signup)
		field  string
		msg    string
	}{
		{"missing name", func(s *signup) { s.Name = "" }, "full_name", "full_name is required"},
		{"long name", func(s *signup) { s.Name = "Dr. Asha Rao" }, "full_name", "full_name must be at most 10 characters"},
		{"gender", func(s *signup) { s.Gender = "robot" }, "gender", "gender must be one of male, female, other"},
		{"dob format", func(s *signup) { s.Born = "12/04/1985" }, "date_of_birth", "date_of_birth must match 2006-01-02"},
		{"dob future", func(s *signup) { s.Born = next + "-01-01" }, "date_of_birth", "date_of_birth must be a date in the past"},
		{"email", func(s *signup) { s.Email = "asha@" }, "email", "email is not a valid email address"},
		{"website", func(s *signup) { s.Site = "ftp://x.in" }, "website", "website must be an http(s) URL"},
		{"old year", func(s *signup) { s.Year = 1900 }, "registration_year", "registration_year must be at least 1950"},
		{"future year", func(s *signup) { s.Year = nextYear }, "registration_year", "registration_year must not be in the future"},
		{"no languages", func(s *signup) { s.Langs = []string{} }, "language_ids", "language_ids needs at least one entry"},
		{"bad language", func(s *signup) { s.Langs = []string{"nope"} }, "language_ids[0]", "language_ids[0] is not a valid id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)

			err := Struct(in)
			var verr Errors
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.True(t, verr.Has(tt.field))
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestStructAcceptsValidInput(t *testing.T) {
	in := valid()
	in.Gender = "Female"
	in.Born = "1985-04-12"
	in.Email = "asha@example.com"
	in.Site = "https://asha.example.com"
	assert.NoError(t, Struct(in))
}

func TestStructPartial(t *testing.T) {
	in := valid()
	in.Name = ""
	in.Year = 1900

	err := StructPartial(in, "Year")
	var verr Errors
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr, 1)
	assert.True(t, verr.Has("registration_year"))

	assert.NoError(t, StructPartial(in, "Gender", "Email"))
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("audience", "doctor", "oneof=patient doctor"))

	err := Var("audience", "nurse", "oneof=patient doctor")
	assert.EqualError(t, err, "audience must be one of patient, doctor")
}

func TestFiberValidator(t *testing.T) {
	var v Fiber

	in := valid()
	assert.NoError(t, v.Validate(&in))

	in.Name = ""
	assert.Error(t, v.Validate(&in))

	m := map[string]any{"full_name": ""}
	assert.NoError(t, v.Validate(&m))
}
