package feeders

import "errors"

// Static errors for the feeders package
var (
	ErrEnvInvalidStructure = errors.New("env: expected pointer to struct")
	ErrEnvConversion       = errors.New("env: cannot convert value")
	ErrEnvFieldCannotBeSet = errors.New("env: field cannot be set")
)
