package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/99designs/gqlgen/graphql"
	"github.com/sirupsen/logrus"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Error codes reported in errors[].extensions.code.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeBadUserInput = "BAD_USER_INPUT"
	CodeInternal     = "INTERNAL"
)

// ErrorPresenter assigns an extension code to every field error. Errors that
// are neither a missing record nor bad input are logged and reported as
// internalError, so their detail never reaches the client.
func ErrorPresenter(log *logrus.Entry) graphql.ErrorPresenterFunc {
	return func(ctx context.Context, err error) *gqlerror.Error {
		gqlErr := graphql.DefaultErrorPresenter(ctx, err)
		if ErrorCode(gqlErr) != "" {
			return gqlErr
		}

		var inErr *inputError
		switch {
		case errors.Is(err, ErrNotFound):
			return setCode(gqlErr, CodeNotFound)
		case errors.As(err, &inErr), coercingArguments(ctx):
			return setCode(gqlErr, CodeBadUserInput)
		case gqlErr.Err == nil:
			// Raised without an underlying cause.
			return setCode(gqlErr, CodeInternal)
		}

		log.WithError(err).WithField("path", gqlErr.Path.String()).Error("resolver failed")
		return internalError(gqlErr.Path)
	}
}

// coercingArguments reports whether ctx belongs to a field whose arguments
// failed to coerce; such a field never got its Args.
func coercingArguments(ctx context.Context) bool {
	fc := graphql.GetFieldContext(ctx)
	return fc != nil && fc.Field.Field != nil && len(fc.Field.Arguments) > 0 && fc.Args == nil
}

// RecoverFunc logs a resolver panic and reports it as an internal error.
func RecoverFunc(log *logrus.Entry) graphql.RecoverFunc {
	return func(ctx context.Context, err any) error {
		log.WithField("panic", fmt.Sprint(err)).WithField("path", graphql.GetPath(ctx).String()).Error("resolver panicked")
		return internalError(graphql.GetPath(ctx))
	}
}

// internalError hides the cause of a failure the client cannot act on.
func internalError(path ast.Path) *gqlerror.Error {
	return &gqlerror.Error{
		Message:    "internal system error",
		Path:       path,
		Extensions: map[string]any{"code": CodeInternal},
	}
}

func setCode(err *gqlerror.Error, code string) *gqlerror.Error {
	if err.Extensions == nil {
		err.Extensions = map[string]any{}
	}
	err.Extensions["code"] = code
	return err
}

// ErrorCode returns the extension code of a GraphQL error, or "".
func ErrorCode(err *gqlerror.Error) string {
	if err == nil || err.Extensions == nil {
		return ""
	}
	code, _ := err.Extensions["code"].(string)
	return code
}
