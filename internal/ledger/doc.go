// Package ledger holds the pure building blocks of the expense ledger:
// locale-tolerant amount parsing, transaction fingerprints, neutral
// keyword classification and calendar periods.
package ledger
