package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidInput, "bar collection is empty")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidInput, err.Code)
	suite.Equal("bar collection is empty", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeDataNotFound, "no data found for symbol %s", "BTCUSDT")
	suite.NotNil(err)
	suite.Equal(ErrCodeDataNotFound, err.Code)
	suite.Equal("no data found for symbol BTCUSDT", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeQueryFailed, "failed to execute query", cause)
	suite.NotNil(err)
	suite.Equal(ErrCodeQueryFailed, err.Code)
	suite.Equal("failed to execute query", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeMarketDataFetchFailed, cause, "failed to fetch klines for %s", "ETHUSDT")
	suite.NotNil(err)
	suite.Equal(ErrCodeMarketDataFetchFailed, err.Code)
	suite.Equal("failed to fetch klines for ETHUSDT", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeInvalidInput, "bar collection is empty")
	suite.Equal("[100] bar collection is empty", err.Error())
}

func (suite *ErrorTestSuite) TestErrorStringWithCause() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataNotFound, "data not found", cause)
	suite.Equal("[201] data not found: underlying error", err.Error())
}

func (suite *ErrorTestSuite) TestUnwrap() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataNotFound, "data not found", cause)
	suite.Equal(cause, err.Unwrap())
}

func (suite *ErrorTestSuite) TestGetCode() {
	err := New(ErrCodeNoDataProcessed, "no data processed during backtest")
	suite.Equal(ErrCodeNoDataProcessed, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromWrapped() {
	cause := New(ErrCodeDataNotFound, "data not found")
	err := Wrap(ErrCodeBacktestConfigError, "failed to load data", cause)
	// GetCode should return the outermost error's code
	suite.Equal(ErrCodeBacktestConfigError, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromStandardError() {
	err := errors.New("standard error")
	suite.Equal(ErrCodeUnknown, GetCode(err))
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := New(ErrCodeUnknownStrategy, "strategy sma-xyz not found")
	suite.True(HasCode(err, ErrCodeUnknownStrategy))
	suite.False(HasCode(err, ErrCodeDataNotFound))
}

func (suite *ErrorTestSuite) TestIsError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataNotFound, "data not found", cause)
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestInsufficientHistoryError() {
	err := NewInsufficientHistoryError(20, 19, "insufficient history")
	suite.Equal(20, err.Required)
	suite.Equal(19, err.Actual)
	suite.Equal("insufficient history", err.Error())
	suite.True(IsInsufficientHistoryError(err))
}

func (suite *ErrorTestSuite) TestInsufficientHistoryErrorInChain() {
	inner := NewInsufficientHistoryErrorf(20, 5, "need %d bars, have %d", 20, 5)
	wrapped := fmt.Errorf("strategy skipped: %w", inner)
	suite.True(IsInsufficientHistoryError(wrapped))

	var target *InsufficientHistoryError
	suite.True(As(wrapped, &target))
	suite.Equal(20, target.Required)
}

func (suite *ErrorTestSuite) TestIsInsufficientHistoryErrorFalse() {
	err := New(ErrCodeInvalidInput, "bad input")
	suite.False(IsInsufficientHistoryError(err))
}
