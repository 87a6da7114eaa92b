package domain

import "errors"

// Sentinel errors of the forecasting pipeline. Callers branch with errors.Is;
// the portfolio analyzer converts all of them into per-product skips, while a
// single-product caller gets them back as a structured error response.
var (
	// ErrInsufficientHistory means fewer than the minimum usable days of
	// sales data exist for a (retailer, product) pair. Training is not
	// attempted and no artifact is persisted.
	ErrInsufficientHistory = errors.New("insufficient sales history")

	// ErrProductNotFound means the product reference does not resolve.
	ErrProductNotFound = errors.New("product not found")

	// ErrModelArtifactCorrupt means a persisted artifact could not be
	// decoded or no longer matches the feature schema. The store treats it
	// as absent and retrains.
	ErrModelArtifactCorrupt = errors.New("model artifact corrupt")

	// ErrComputeFailure means the regression trainer or predictor failed.
	// Not retried; surfaced to the immediate caller.
	ErrComputeFailure = errors.New("regression compute failure")

	// ErrNoPurchaseHistory means a retailer has no candidate products at
	// all, which aborts a portfolio scan.
	ErrNoPurchaseHistory = errors.New("no purchase history")
)
