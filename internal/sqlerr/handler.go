package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/deppfellow/go-dispatch/internal/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var uniqueKeyPattern = regexp.MustCompile(`_([^_]+)_(?:key|ukey)$`)

// ConvertPgError converts a raw Postgres error into an *Error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// generateErrorCode builds a machine code of the form <DOMAIN>_<ACTION>,
// e.g. users + UniqueViolation => USER_ALREADY_EXISTS.
func generateErrorCode(tableName string, errType Code) string {
	if tableName == "" {
		tableName = "RECORD"
	}

	domain := strings.ToUpper(tableName)
	if strings.HasSuffix(domain, "S") && len(domain) > 1 {
		domain = domain[:len(domain)-1]
	}

	action := "ERROR"
	switch errType {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation:
		action = "INVALID"
	case ConnectionFailure:
		action = "UNAVAILABLE"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

func formatUserFriendlyMessage(sqlErr *Error) string {
	entityName := getEntityName(sqlErr.TableName, sqlErr.ColumnName)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entityName)

	case UniqueViolation:
		// "identifier" is replaced by the column when the constraint name reveals it.
		return fmt.Sprintf("A %s with this identifier already exists", entityName)

	case NotNullViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName == "" {
			fieldName = "field"
		}
		return fmt.Sprintf("The %s is required", fieldName)

	case CheckViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName != "" {
			return fmt.Sprintf("The %s value does not meet required conditions", fieldName)
		}
		return "One or more values do not meet required conditions"

	case ConnectionFailure:
		return "The database is temporarily unavailable"

	default:
		return "An error occurred while processing your request"
	}
}

// getEntityName prefers a "<entity>_id" column, then the singularized
// table name, then "record".
func getEntityName(tableName, columnName string) string {
	if columnName != "" && strings.HasSuffix(strings.ToLower(columnName), "_id") {
		entity := strings.TrimSuffix(strings.ToLower(columnName), "_id")
		return humanizeText(entity)
	}

	if tableName != "" {
		entity := tableName
		if strings.HasSuffix(entity, "s") && len(entity) > 1 {
			entity = entity[:len(entity)-1]
		}
		return humanizeText(entity)
	}

	return "record"
}

// humanizeText converts snake_case into Title Case: "first_name" -> "First Name".
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// extractColumnForUniqueViolation infers the column from a unique
// constraint name. Supported conventions:
//
//	unique_<table>_<column>
//	<table>_<column>_key, <table>_<column>_ukey
func extractColumnForUniqueViolation(constraintName string) string {
	if constraintName == "" {
		return ""
	}

	if strings.HasPrefix(constraintName, "unique_") {
		parts := strings.Split(constraintName, "_")
		if len(parts) >= 3 {
			return parts[len(parts)-1]
		}
	}

	matches := uniqueKeyPattern.FindStringSubmatch(constraintName)
	if len(matches) > 1 {
		return matches[1]
	}

	return ""
}

func errorData(code string, issues ...errs.Issue) map[string]any {
	data := map[string]any{"code": code}
	if len(issues) > 0 {
		data["issues"] = issues
	}
	return data
}

// HandleError converts a database error into an error an operation can return.
//
// Output:
//   - *errs.ApplicationError / *errs.ValidationError / *errs.HTTPError: returned unchanged
//   - pgconn.PgError: a 4xx ApplicationError for constraint violations,
//     503 for connection failures, 500 otherwise
//   - ErrNoRows: 404 ApplicationError
//   - anything else: returned unchanged, so the dispatcher answers with
//     its generic internal server error
func HandleError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *errs.ApplicationError
	var validationErr *errs.ValidationError
	var httpErr *errs.HTTPError
	if errors.As(err, &appErr) || errors.As(err, &validationErr) || errors.As(err, &httpErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		sqlErr := ConvertPgError(pgErr)

		errorCode := generateErrorCode(sqlErr.TableName, sqlErr.Code)
		userMessage := formatUserFriendlyMessage(sqlErr)

		switch sqlErr.Code {
		case ForeignKeyViolation:
			return errs.NewApplicationError(http.StatusBadRequest, errs.Messages{
				UserMessage: userMessage,
				DevMessage:  sqlErr.Error(),
				Data:        errorData(errorCode),
			})

		case UniqueViolation:
			if column := extractColumnForUniqueViolation(sqlErr.ConstraintName); column != "" {
				userMessage = strings.ReplaceAll(userMessage, "identifier", humanizeText(column))
			}
			return errs.NewApplicationError(http.StatusConflict, errs.Messages{
				UserMessage: userMessage,
				DevMessage:  sqlErr.Error(),
				Data:        errorData(errorCode),
			})

		case NotNullViolation:
			issue := errs.Issue{
				Path:    []string{strings.ToLower(sqlErr.ColumnName)},
				Code:    "required",
				Message: "is required",
			}
			return errs.NewApplicationError(http.StatusBadRequest, errs.Messages{
				UserMessage: userMessage,
				DevMessage:  sqlErr.Error(),
				Data:        errorData(errorCode, issue),
			})

		case CheckViolation:
			return errs.NewApplicationError(http.StatusBadRequest, errs.Messages{
				UserMessage: userMessage,
				DevMessage:  sqlErr.Error(),
				Data:        errorData(errorCode),
			})

		case ConnectionFailure:
			return errs.NewApplicationError(http.StatusServiceUnavailable, errs.Messages{
				UserMessage: userMessage,
				DevMessage:  sqlErr.Error(),
				Data:        errorData(errorCode),
			})

		default:
			// Unknown database errors must not leak details to clients.
			return errs.NewApplicationError(http.StatusInternalServerError, errs.Messages{
				DevMessage: sqlErr.Error(),
			})
		}
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return errs.NewApplicationError(http.StatusNotFound, errs.Messages{
			UserMessage: "Resource not found",
			DevMessage:  err.Error(),
			Data:        errorData("RECORD_NOT_FOUND"),
		})
	}

	return err
}
