package validation

import (
	"strings"
	"testing"

	dErrors "databreaker/pkg/domain-errors"

	"github.com/stretchr/testify/suite"
)

// LimitsSuite checks the boundary behavior of the size guards.
type LimitsSuite struct {
	suite.Suite
}

func TestLimitsSuite(t *testing.T) {
	suite.Run(t, new(LimitsSuite))
}

func (s *LimitsSuite) TestCheckSliceCount() {
	s.Run("passes when count equals max", func() {
		err := CheckSliceCount("brokers", 20, 20)
		s.NoError(err)
	})

	s.Run("passes when count is below max", func() {
		err := CheckSliceCount("brokers", 5, 20)
		s.NoError(err)
	})

	s.Run("passes when count is zero", func() {
		err := CheckSliceCount("brokers", 0, 20)
		s.NoError(err)
	})

	s.Run("fails when count exceeds max", func() {
		err := CheckSliceCount("brokers", 21, 20)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "too many brokers")
		s.Contains(err.Error(), "max 20 allowed")
	})
}

func (s *LimitsSuite) TestCheckStringLength() {
	s.Run("passes when length equals max", func() {
		str := strings.Repeat("a", 100)
		err := CheckStringLength("broker id", str, 100)
		s.NoError(err)
	})

	s.Run("passes when length is below max", func() {
		err := CheckStringLength("broker id", "short", 100)
		s.NoError(err)
	})

	s.Run("passes for empty string", func() {
		err := CheckStringLength("broker id", "", 100)
		s.NoError(err)
	})

	s.Run("fails when length exceeds max", func() {
		str := strings.Repeat("a", 101)
		err := CheckStringLength("broker id", str, 100)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "broker id exceeds max length of 100")
	})
}

func (s *LimitsSuite) TestCheckEachStringLength() {
	s.Run("passes when all elements are within limit", func() {
		values := []string{"short", "also short", strings.Repeat("a", 100)}
		err := CheckEachStringLength("broker id", values, 100)
		s.NoError(err)
	})

	s.Run("passes for empty slice", func() {
		err := CheckEachStringLength("broker id", []string{}, 100)
		s.NoError(err)
	})

	s.Run("passes for nil slice", func() {
		err := CheckEachStringLength("broker id", nil, 100)
		s.NoError(err)
	})

	s.Run("fails when any element exceeds max", func() {
		values := []string{"short", strings.Repeat("a", 101), "also short"}
		err := CheckEachStringLength("broker id", values, 100)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "broker id exceeds max length of 100")
	})

	s.Run("fails on first exceeding element", func() {
		values := []string{strings.Repeat("a", 101), strings.Repeat("b", 102)}
		err := CheckEachStringLength("broker id", values, 100)
		s.Require().Error(err)
				s.Contains(err.Error(), "broker id exceeds max length of 100")
	})
}

func (s *LimitsSuite) TestCheckFieldLengths() {
	s.NoError(CheckFieldLengths(4, Field{"state", "TX"}, Field{"city", "Waco"}))

	err := CheckFieldLengths(4, Field{"state", "TX"}, Field{"city", "Austin"}, Field{"email", "toolong"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Contains(err.Error(), "city")
}
