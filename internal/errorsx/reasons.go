package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonTransportConnect  ReasonCode = "transport_connect"
	ReasonTransportProtocol ReasonCode = "transport_protocol"

	ReasonExtractionModel     ReasonCode = "extraction_model"
	ReasonExtractionMalformed ReasonCode = "extraction_malformed"
	ReasonExtractionEmpty     ReasonCode = "extraction_empty"

	ReasonPersistence  ReasonCode = "persistence"
	ReasonInvalidDraft ReasonCode = "invalid_draft"
	ReasonRateLimited  ReasonCode = "rate_limited"
)
