package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"connext-backend/internal/service"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrUserNotFound, http.StatusNotFound},
		{service.ErrGroupNotFound, http.StatusNotFound},
		{service.ErrNotAdmin, http.StatusForbidden},
		{service.ErrMembersOnly, http.StatusForbidden},
		{service.ErrInvalidCredentials, http.StatusForbidden},
		{service.ErrAlreadyMember, http.StatusConflict},
		{service.ErrEmailTaken, http.StatusConflict},
		{service.ErrNotAMember, http.StatusBadRequest},
		{service.ErrNoContent, http.StatusBadRequest},
		{fmt.Errorf("%w: cloud down", service.ErrUploadFailed), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
