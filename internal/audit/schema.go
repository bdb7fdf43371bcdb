package audit

import _ "embed"

// Schema is the idempotent DDL for the audit_events table.
//
//go:embed schema.sql
var Schema string
