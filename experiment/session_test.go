// SPDX-License-Identifier: MIT

package experiment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionFinishKeepsCloseError(t *testing.T) {
	closeErr := errors.New("database is locked")
	closes := 0
	s := &session{closer: func() error {
		closes++
		return closeErr
	}}
	run := func(prior error) (err error) {
		defer s.finish(&err)

		return prior
	}

	assert.ErrorIs(t, run(nil), closeErr)

	fitErr := errors.New("simplex diverged")
	err := run(fitErr)
	assert.ErrorIs(t, err, fitErr)
	assert.NotErrorIs(t, err, closeErr, "the first failure wins")
	assert.Equal(t, 2, closes)

	assert.NoError(t, (&session{}).close(), "a caller-owned store is never closed")
}
