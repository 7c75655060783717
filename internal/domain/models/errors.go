package models

import "errors"

var (
	// ErrInsufficientHistory means the series is shorter than a component's window.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrProviderUnavailable means every configured market data source failed.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrModelTraining means the feature rows could not produce a model.
	ErrModelTraining = errors.New("model training failure")
	ErrUnknownSymbol = errors.New("unknown symbol")
	ErrNotReady      = errors.New("data not available")
)
