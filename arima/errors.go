package arima

import "errors"

var (
	// ErrConvergence is returned when the likelihood optimiser stops early or
	// ends on a non-finite value.
	ErrConvergence = errors.New("arima: optimisation did not converge")
	// ErrInsufficientData is returned when the training series is too short
	// for the requested order.
	ErrInsufficientData = errors.New("arima: insufficient data for order")
	// ErrInvalidHorizon is returned for a forecast horizon below 1.
	ErrInvalidHorizon = errors.New("arima: horizon must be at least 1")
	// ErrInvalidOrder is returned for negative orders or seasonal terms
	// without a seasonal period.
	ErrInvalidOrder = errors.New("arima: invalid order")
	// ErrTrendEliminated is returned when differencing removes a requested
	// trend term.
	ErrTrendEliminated = errors.New("arima: trend term eliminated by differencing")
	// ErrInvalidConfidence is returned for a confidence level outside (0, 1).
	ErrInvalidConfidence = errors.New("arima: confidence level must be in (0, 1)")
)
