package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidInput         ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidParameter     ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103
	ErrCodeInvalidTimeRange     ErrorCode = 104
	ErrCodeInvalidInterval      ErrorCode = 105

	// Data/Resource errors (200-299)
	ErrCodeEmptyDataset ErrorCode = 200
	ErrCodeDataNotFound ErrorCode = 201
	ErrCodeQueryFailed  ErrorCode = 202

	// Indicator errors (300-399)
	ErrCodeIndicatorCalculation ErrorCode = 300

	// Strategy errors (400-499)
	ErrCodeUnknownStrategy     ErrorCode = 400
	ErrCodeStrategyConfigError ErrorCode = 401

	// Execution errors (500-599)
	ErrCodeOrderRejected       ErrorCode = 500
	ErrCodeInsufficientCapital ErrorCode = 501

	// Backtest errors (600-699)
	ErrCodeNoDataProcessed     ErrorCode = 600
	ErrCodeBacktestConfigError ErrorCode = 601

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
)
