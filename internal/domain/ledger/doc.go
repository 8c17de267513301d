// Package ledger records provisioned sessions in an append-only text file.
//
// Each line is owner|handle|command, for example:
//
//	hydrenix|4f1c2a9e0b7d|ssh Ab3dE7fG9hJ@lon1.tmate.io
package ledger
