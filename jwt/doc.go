// Package jwt signs and verifies access tokens that carry a session's JWT
// payload under the userDataInJWT claim.
//
// Verification pins the algorithm, optionally checks issuer, audience, and
// kid, and bounds clock skew with a configurable leeway.
package jwt
