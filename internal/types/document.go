package types

const (
	// MaxItemsPerDocument is the hard ceiling on line items a single delivery
	// challan may carry. Groups above the ceiling are split into continuation
	// documents under the same parent serial.
	MaxItemsPerDocument = 250

	// DocumentNumberFieldLimit is the maximum length the e-way bill upload
	// template accepts for the document number field. Numbers above this length
	// are flagged at format time, never truncated.
	DocumentNumberFieldLimit = 16

	// CounterDigits is the fixed zero-padded width of the counter portion of a
	// document number. Downstream upload templates depend on this width.
	CounterDigits = 8

	// DefaultPartSuffixFormat renders the continuation-part suffix appended to
	// a parent serial, e.g. AKDCHYDNCH00000301_02.
	DefaultPartSuffixFormat = "_%02d"

	// DefaultSequenceSeed is the floor value a previously-unseen counter is
	// created with.
	DefaultSequenceSeed = 300
)

// SequenceBackendType identifies one counter backend in the fallback chain.
type SequenceBackendType string

const (
	SequenceBackendSupabase SequenceBackendType = "supabase"
	SequenceBackendDynamoDB SequenceBackendType = "dynamodb"
	SequenceBackendPostgres SequenceBackendType = "postgres"
	SequenceBackendFile     SequenceBackendType = "file"
)

// SkipReason classifies why a document group produced no bundle.
type SkipReason string

const (
	SkipReasonSellerNotActive SkipReason = "seller_not_active"
	SkipReasonUnknownFacility SkipReason = "unknown_facility"
	SkipReasonEmptyLineItems  SkipReason = "empty_line_items"
)
