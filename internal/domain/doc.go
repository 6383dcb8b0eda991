// Package domain contains the core business entities of the analysis queue:
// jobs (scoring contexts), candidates (units of queued work), and the
// operator-editable scoring configuration. Entities validate themselves and
// carry no persistence or transport concerns.
package domain
