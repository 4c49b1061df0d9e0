// Package preflight provides readiness checks for the filesystem paths and
// the remote backend that Flashdeck depends on.
//
// These checks run in two contexts:
//   - "flashdeck serve" calls RunAll at startup and logs every failure, so an
//     unreachable backend is visible before the first user hits it.
//   - "flashdeck status" renders the same results alongside config summaries
//     (CheckNotificationsFromConfig, CheckArchiveFromConfig).
package preflight
