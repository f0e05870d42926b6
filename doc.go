// Package accounts implements cookie based session authentication for the
// Forge web properties: signup, login, logout, session resolution, and
// profile updates.
//
// Identity storage:
//   - Users are persisted via Bun with a soft delete column. The repository
//     layer resolves identifiers by uuid or email and tracks login attempts
//     so repeated failures inside the cool down window lock the account.
//
// Session tokens:
//   - TokenService signs and validates the JWT carried in the auth-token
//     cookie. Validation can be chained through MultiTokenValidator so a
//     deployment can accept locally signed tokens alongside tokens verified
//     against a remote JWK set.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther and the
//     HTTP controller to describe signup, login, logout, and profile update
//     events. Sinks run best-effort (errors are logged) so you can forward
//     to a database or queue without blocking authentication.
package accounts
