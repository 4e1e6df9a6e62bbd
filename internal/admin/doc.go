// Package admin provides administrative HTTP handlers for account
// management.
//
// # Endpoints
//
// User management:
//
//   - GET /api/admin/users - List all users
//   - POST /api/admin/users - Create a user
//   - POST /api/admin/users/{uid}/enable - Re-enable a disabled account
//   - POST /api/admin/users/{uid}/disable - Disable an account and revoke its tokens
//   - POST /api/admin/users/{uid}/group - Add the user to the admin group
//   - DELETE /api/admin/users/{uid}/group - Remove the user from the admin group
//
// Token management:
//
//   - DELETE /api/admin/users/{uid}/tokens - Revoke all of a user's tokens
//
// # Authentication
//
// Every endpoint requires an authenticated session whose user belongs to
// the admin group. Incognito requests always fail the check, so admin
// operations are unreachable from public-link contexts.
package admin
