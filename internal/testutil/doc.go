// Package testutil contains helper builders used across tests to script
// model outputs for whole pipeline runs without repeating the structured
// response formats in every test. These helpers are intentionally minimal
// and avoid adding third-party dependencies. They are not intended for
// production usage.
package testutil
