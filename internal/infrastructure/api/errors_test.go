package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseError(t *testing.T) {
	err := fmt.Errorf("login: %w", &ResponseError{
		Method:     "POST",
		Path:       "/login",
		StatusCode: 403,
		Body:       "bad credentials\n",
	})

	assert.Equal(t, "login: POST /login returned status 403: bad credentials", err.Error())
	assert.Equal(t, "bad credentials\n", DisplayText(err))
	assert.Equal(t, 403, StatusCode(err))

	plain := errors.New("connection reset")
	assert.Equal(t, "connection reset", DisplayText(plain))
	assert.Equal(t, 0, StatusCode(plain))
	assert.Equal(t, "", DisplayText(nil))
}
