package validation

import (
	"fmt"
	"strings"

	"github.com/hm-damul/template-factory-sub001/internal/errors"
)

// ToAppError converts a failed report to an AppError
func (r *Report) ToAppError() *errors.AppError {
	if r.Valid {
		return nil
	}

	name := r.ProductID
	if name == "" {
		name = r.Dir
	}

	appErr := errors.ValidationError(fmt.Sprintf("package %s failed validation", name))

	var details []string
	for _, issue := range r.Errors {
		details = append(details, fmt.Sprintf("%s: %s", issue.Check, issue.Message))
	}
	appErr.WithDetails(strings.Join(details, "; "))

	appErr.WithContext("validation_errors", r.Errors)
	if len(r.Warnings) > 0 {
		appErr.WithContext("validation_warnings", r.Warnings)
	}

	return appErr
}

// ReportsToAppError collapses library-wide results into a single AppError,
// or nil when every package passed.
func ReportsToAppError(reports []*Report) *errors.AppError {
	summary := Summarize(reports)
	if summary.Invalid == 0 {
		return nil
	}

	var failed []string
	for _, r := range reports {
		if !r.Valid {
			name := r.ProductID
			if name == "" {
				name = r.Dir
			}
			failed = append(failed, name)
		}
	}

	appErr := errors.ValidationError(
		fmt.Sprintf("%d of %d packages failed validation", summary.Invalid, summary.Packages))
	appErr.WithDetails(strings.Join(failed, ", "))
	return appErr
}
