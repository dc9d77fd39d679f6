package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/taskmanager/internal/ports"
)

func TestFormValidator(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		form    interface{}
		wantErr map[string]string
	}{
		{
			name: "valid registration",
			form: ports.RegisterUserRequest{
				Username: "john.doe", FirstName: "John", LastName: "Doe", Password1: "abc", Password2: "abc",
			},
		},
		{
			name: "missing fields",
			form: ports.RegisterUserRequest{},
			wantErr: map[string]string{
				"username":   "This field is required.",
				"first_name": "This field is required.",
				"password1":  "This field is required.",
			},
		},
		{
			name: "bad username and short password",
			form: ports.RegisterUserRequest{
				Username: "john doe", FirstName: "John", LastName: "Doe", Password1: "ab", Password2: "ab",
			},
			wantErr: map[string]string{
				"username":  "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.",
				"password1": "This password is too short. It must contain at least 3 characters.",
			},
		},
		{
			name: "passwords differ",
			form: ports.RegisterUserRequest{
				Username: "john", FirstName: "John", LastName: "Doe", Password1: "abc", Password2: "abd",
			},
			wantErr: map[string]string{
				"password2": "The two password fields didn't match.",
			},
		},
		{
			name: "update without password",
			form: ports.UpdateUserRequest{Username: "john", FirstName: "John", LastName: "Doe"},
		},
		{
			name: "update with mismatched password",
			form: ports.UpdateUserRequest{Username: "john", FirstName: "John", LastName: "Doe", Password1: "abc"},
			wantErr: map[string]string{
				"password2": "The two password fields didn't match.",
			},
		},
		{
			name:    "task without status",
			form:    ports.TaskRequest{Name: "t", Description: "d", ExecutorID: 1},
			wantErr: map[string]string{"status": "This field is required."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.form)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			errs, ok := formErrorsFrom(err)
			require.True(t, ok)
			for field, msg := range tt.wantErr {
				assert.Contains(t, errs[field], msg, field)
			}
		})
	}
}

func TestNameTooLong(t *testing.T) {
	long := make([]byte, 151)
	for i := range long {
		long[i] = 'a'
	}

	errs, ok := formErrorsFrom(NewValidator().Validate(ports.NameRequest{Name: string(long)}))
	require.True(t, ok)
	assert.Equal(t, []string{"Ensure this value has at most 150 characters."}, errs["name"])
}
