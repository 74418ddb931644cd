package catalog

import "github.com/giantswarm/microerror"

var invalidConfigError = &microerror.Error{
	Kind: "invalidConfigError",
}

// IsInvalidConfig asserts invalidConfigError.
func IsInvalidConfig(err error) bool {
	return microerror.Cause(err) == invalidConfigError
}

var notFoundError = &microerror.Error{
	Kind: "notFoundError",
}

// IsNotFound asserts notFoundError.
func IsNotFound(err error) bool {
	return microerror.Cause(err) == notFoundError
}

var refreshFailedError = &microerror.Error{
	Kind: "refreshFailedError",
}

// IsRefreshFailed asserts refreshFailedError.
func IsRefreshFailed(err error) bool {
	return microerror.Cause(err) == refreshFailedError
}

var startupTimeoutError = &microerror.Error{
	Kind: "startupTimeoutError",
}

// IsStartupTimeout asserts startupTimeoutError.
func IsStartupTimeout(err error) bool {
	return microerror.Cause(err) == startupTimeoutError
}
