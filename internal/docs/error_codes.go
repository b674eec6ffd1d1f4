package docs

const (
	// Validation & malformed input (1xxx)
	ErrCodeInvalidArgument   = 1000
	ErrCodeInvalidJSON       = 1001
	ErrCodeInvalidDocumentID = 1002
	ErrCodeInvalidAuthorID   = 1003
	ErrCodeInvalidKey        = 1004
	ErrCodeInvalidTicket     = 1005
	ErrCodeInvalidQuery      = 1006
	ErrCodeInvalidPolicy     = 1007
	ErrCodeInvalidSchema     = 1008
	ErrCodeSchemaViolation   = 1009
	ErrCodeEmptyContent      = 1010
	ErrCodeReservedKey       = 1011

	// Domain state (2xxx)
	ErrCodeDocumentNotFound = 2001
	ErrCodeEntryNotFound    = 2002
	ErrCodeBlobNotFound     = 2003
	ErrCodeSchemaNotFound   = 2004
	ErrCodeFileNotFound     = 2005
	ErrCodeDocumentDropped  = 2006
	ErrCodeConflict         = 2101
	ErrCodeSchemaExists     = 2102
	ErrCodeDocumentNotEmpty = 2103

	// Capability & lifecycle (3xxx)
	ErrCodeReadOnly         = 3001
	ErrCodeHandleClosed     = 3002
	ErrCodeServiceClosed    = 3004
	ErrCodeFileImportDenied = 3005

	// Internal/system (4xxx)
	ErrCodeInternal     = 4001
	ErrCodeStoreFailure = 4002
	ErrCodeBlobFailure  = 4003
	ErrCodeCorrupt      = 4004
)

func defaultErrorCodeByKind(kind Kind) int {
	switch kind {
	case KindValidation:
		return ErrCodeInvalidArgument
	case KindMalformedInput:
		return ErrCodeInvalidJSON
	case KindNotFound:
		return ErrCodeDocumentNotFound
	case KindCapability:
		return ErrCodeReadOnly
	case KindConflict:
		return ErrCodeConflict
	case KindClosed:
		return ErrCodeHandleClosed
	case KindResource:
		return ErrCodeStoreFailure
	default:
		return ErrCodeInternal
	}
}
