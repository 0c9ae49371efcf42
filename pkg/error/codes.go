package error

// Result codes. These mirror the original engine's ResultCode enum one for
// one; every operation in this module reports failure through one of these
// rather than an ad hoc error string, so callers can branch on Code (via
// HasCode, or errors.Is against a *DBError carrying the same code) instead of
// string-matching.
const (
	CodeGenericError    = "GENERIC_ERROR"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeNoMem           = "NOMEM"

	CodeIOErr       = "IOERR"
	CodeIOErrSeek   = "IOERR_SEEK"
	CodeIOErrRead   = "IOERR_READ"
	CodeIOErrWrite  = "IOERR_WRITE"
	CodeIOErrAccess = "IOERR_ACCESS"
	CodeIOErrClose  = "IOERR_CLOSE"

	CodeLockedUnlock = "LOCKED_UNLOCK"

	CodeSchemaDBExist           = "SCHEMA_DB_EXIST"
	CodeSchemaTableExist        = "SCHEMA_TABLE_EXIST"
	CodeSchemaFieldMissing      = "SCHEMA_FIELD_MISSING"
	CodeSchemaFieldTypeMismatch = "SCHEMA_FIELD_TYPE_MISMATCH"
	CodeSchemaIndexExist        = "SCHEMA_INDEX_EXIST"

	CodeBufferpoolOpenTooManyFiles = "BUFFERPOOL_OPEN_TOO_MANY_FILES"
	CodeBufferpoolIllegalFileID    = "BUFFERPOOL_ILLEGAL_FILE_ID"
	CodeBufferpoolInvalidPageNum   = "BUFFERPOOL_INVALID_PAGE_NUM"
	CodeBufferpoolClosed           = "BUFFERPOOL_CLOSED"

	CodeRecordEOF        = "RECORD_EOF"
	CodeRecordInvalidKey = "RECORD_INVALID_KEY"
)

// categoryByCode pairs each code with its Category, so Code(...) below
// always produces a correctly-classified *DBError without every call site
// needing to pick a category.
var categoryByCode = map[string]ErrorCategory{
	CodeGenericError:    ErrCategorySystem,
	CodeInvalidArgument: ErrCategoryUser,
	CodeNoMem:           ErrCategorySystem,

	CodeIOErr:       ErrCategorySystem,
	CodeIOErrSeek:   ErrCategorySystem,
	CodeIOErrRead:   ErrCategorySystem,
	CodeIOErrWrite:  ErrCategorySystem,
	CodeIOErrAccess: ErrCategorySystem,
	CodeIOErrClose:  ErrCategorySystem,

	CodeLockedUnlock: ErrCategoryConcurrency,

	CodeSchemaDBExist:           ErrCategoryUser,
	CodeSchemaTableExist:        ErrCategoryUser,
	CodeSchemaFieldMissing:      ErrCategoryUser,
	CodeSchemaFieldTypeMismatch: ErrCategoryUser,
	CodeSchemaIndexExist:        ErrCategoryUser,

	CodeBufferpoolOpenTooManyFiles: ErrCategorySystem,
	CodeBufferpoolIllegalFileID:    ErrCategoryUser,
	CodeBufferpoolInvalidPageNum:   ErrCategoryUser,
	CodeBufferpoolClosed:           ErrCategorySystem,

	CodeRecordEOF:        ErrCategoryUser,
	CodeRecordInvalidKey: ErrCategoryUser,
}

// Code constructs a *DBError for one of the result codes above, picking its
// Category automatically. message should describe what failed in plain
// language; Detail can be filled in afterward by the caller since DBError's
// fields are exported, and a cause attached with WithCause.
func Code(code, message string) *DBError {
	cat, ok := categoryByCode[code]
	if !ok {
		cat = ErrCategorySystem
	}
	return New(cat, code, message)
}

// WithCause attaches cause to e and returns e, for chaining onto Code(...).
func (e *DBError) WithCause(cause error) *DBError {
	e.Cause = cause
	return e
}

// Is reports whether target is a *DBError with the same Code, so that
// errors.Is(err, error.Code(error.CodeRecordEOF, "")) works for branching on
// result code without string comparison at each call site. Most callers
// instead use the HasCode helper below.
func (e *DBError) Is(target error) bool {
	t, ok := target.(*DBError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// HasCode reports whether err is (or wraps) a *DBError carrying code.
func HasCode(err error, code string) bool {
	for err != nil {
		if de, ok := err.(*DBError); ok {
			if de.Code == code {
				return true
			}
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
