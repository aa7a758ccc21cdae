// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunGetPayload, RunSetPayload, RunIssueToken) accepts a
// typed dependency struct and returns a classified result. Expected outcomes
// such as a missing or expired session are result variants, not errors.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the session store and the token signer.
// They do NOT own any of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import jwtdata (root sentinels are passed in through deps).
//   - Perform I/O directly. All I/O is mediated through dependency interfaces.
//   - Delete or create sessions.
package flows
