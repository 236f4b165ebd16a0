// Package audit records security-relevant events: authentication
// attempts, authorization denials, membership mutations and invitation
// activity.
//
// Events flow through the Logger interface. DBLogger persists to the
// audit_logs table for querying and retention, FileLogger appends JSON
// lines to disk as a durable secondary sink, and MultiLogger fans out
// to both. Handlers call Record, which stamps the request ID from
// context before writing.
package audit
