package usecase

// ClassifyConnectionError is exported for testing
var ClassifyConnectionError = classifyConnectionError
