package registry

import "github.com/giantswarm/microerror"

var transportError = &microerror.Error{
	Kind: "transportError",
}

// IsTransport asserts transportError.
func IsTransport(err error) bool {
	return microerror.Cause(err) == transportError
}

var tokenEndpointUnreachableError = &microerror.Error{
	Kind: "tokenEndpointUnreachableError",
}

// IsTokenEndpointUnreachable asserts tokenEndpointUnreachableError.
func IsTokenEndpointUnreachable(err error) bool {
	return microerror.Cause(err) == tokenEndpointUnreachableError
}

var malformedTokenResponseError = &microerror.Error{
	Kind: "malformedTokenResponseError",
}

// IsMalformedTokenResponse asserts malformedTokenResponseError.
func IsMalformedTokenResponse(err error) bool {
	return microerror.Cause(err) == malformedTokenResponseError
}

// IsAuth asserts any error raised while obtaining a bearer token.
func IsAuth(err error) bool {
	return IsTokenEndpointUnreachable(err) || IsMalformedTokenResponse(err)
}

var unauthorizedError = &microerror.Error{
	Kind: "unauthorizedError",
}

// IsUnauthorized asserts unauthorizedError.
func IsUnauthorized(err error) bool {
	return microerror.Cause(err) == unauthorizedError
}

var notFoundError = &microerror.Error{
	Kind: "notFoundError",
}

// IsNotFound asserts notFoundError.
func IsNotFound(err error) bool {
	return microerror.Cause(err) == notFoundError
}

var unexpectedStatusError = &microerror.Error{
	Kind: "unexpectedStatusError",
}

// IsUnexpectedStatus asserts unexpectedStatusError.
func IsUnexpectedStatus(err error) bool {
	return microerror.Cause(err) == unexpectedStatusError
}

var malformedResponseError = &microerror.Error{
	Kind: "malformedResponseError",
}

// IsMalformedResponse asserts malformedResponseError.
func IsMalformedResponse(err error) bool {
	return microerror.Cause(err) == malformedResponseError
}

var malformedManifestError = &microerror.Error{
	Kind: "malformedManifestError",
}

// IsMalformedManifest asserts malformedManifestError.
func IsMalformedManifest(err error) bool {
	return microerror.Cause(err) == malformedManifestError
}
