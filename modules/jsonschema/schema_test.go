package jsonschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"age": {"type": "integer", "minimum": 0}
	},
	"required": ["name"],
	"additionalProperties": false
}`

func TestSchema_Validate(t *testing.T) {
	s, err := Compile("person.json", []byte(personSchema))
	require.NoError(t, err)
	assert.Equal(t, "person.json", s.Name())

	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"valid", `{"name": "Ada", "age": 36}`, false},
		{"minimal", `{"name": "Ada"}`, false},
		{"missing name", `{"age": 36}`, true},
		{"negative age", `{"name": "Ada", "age": -1}`, true},
		{"unknown field", `{"name": "Ada", "email": "ada@example.com"}`, true},
		{"wrong type", `["Ada"]`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.ValidateBytes([]byte(tt.doc))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidDocument)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSchema_ValidateValue(t *testing.T) {
	s := MustCompile("person.json", []byte(personSchema))

	type person struct {
		Name string `json:"name"`
		Age  int    `json:"age,omitempty"`
	}
	require.NoError(t, s.ValidateValue(person{Name: "Ada"}))
	require.ErrorIs(t, s.ValidateValue(person{}), ErrInvalidDocument)
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile("broken.json", []byte(`{`))
	require.Error(t, err)

	_, err = Compile("bad-type.json", []byte(`{"type": 12}`))
	require.Error(t, err)

	err = MustCompile("any.json", []byte(`{}`)).ValidateBytes([]byte(`not json`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidDocument)

	assert.Panics(t, func() { MustCompile("broken.json", []byte(`{`)) })
}
