// Package utils provides conversion helpers shared by the tool adapters and
// the normalizer.
//
// Tool outputs disagree on units and formatting. These helpers produce the
// canonical forms stored on a Device: capacities in bytes, link speeds in
// Mbit/s, MAC addresses lower-case and colon-separated, serials without
// padding, UUIDs lower-case. OEM placeholder values ("To Be Filled By
// O.E.M.", nil UUIDs) are mapped to the empty string so they never become
// an identity.
package utils
