package entity

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession(t *testing.T) {
	t.Run("Starts empty", func(t *testing.T) {
		s := NewSession()

		_, hasToken := s.Token()
		_, hasCSRF := s.CSRFToken()
		assert.False(t, hasToken)
		assert.False(t, hasCSRF)
		assert.False(t, s.Authenticated())
	})

	t.Run("Last write wins", func(t *testing.T) {
		s := NewSession()
		s.SetToken("first")
		s.SetToken("tok123")
		s.SetCSRFToken("c1")
		s.SetCSRFToken("c2")

		token, _ := s.Token()
		csrf, _ := s.CSRFToken()
		assert.Equal(t, "tok123", token)
		assert.Equal(t, "c2", csrf)
		assert.True(t, s.Authenticated())
	})

	t.Run("Empty token is not authenticated", func(t *testing.T) {
		s := NewSession()
		s.SetToken("")

		token, ok := s.Token()
		assert.True(t, ok)
		assert.Empty(t, token)
		assert.False(t, s.Authenticated())
	})

	t.Run("Clear drops both tokens", func(t *testing.T) {
		s := NewSession()
		s.SetToken("tok")
		s.SetCSRFToken("csrf")

		s.Clear()

		assert.Equal(t, SessionSnapshot{}, s.Snapshot())
	})

	t.Run("Snapshot", func(t *testing.T) {
		s := NewSession()
		s.SetCSRFToken("csrf")

		assert.Equal(t, SessionSnapshot{CSRFToken: "csrf", HasCSRFToken: true}, s.Snapshot())
	})
}

func TestSessionConcurrentWrites(t *testing.T) {
	s := NewSession()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.SetCSRFToken(fmt.Sprintf("csrf-%d", i))
			s.CSRFToken()
		}(i)
	}
	wg.Wait()

	_, ok := s.CSRFToken()
	assert.True(t, ok)
}

func TestViewForPath(t *testing.T) {
	assert.Equal(t, LoginView, ViewForPath(LoginPath))
	assert.Equal(t, TransactionsView, ViewForPath(TransactionsPath))
	assert.Equal(t, ViewName("/other"), ViewForPath("/other"))
}
