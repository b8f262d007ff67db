package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	ErrNotLoaded = goerr.New("knowledge base is not loaded")
)
