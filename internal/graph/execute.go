package graph

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/executor"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Execute runs a GraphQL document in-process against the resolver. Parse and
// validation failures are returned as a response with errors and no data.
func Execute(ctx context.Context, r *Resolver, query string, variables map[string]any, operationName string) *graphql.Response {
	exec := executor.New(NewExecutableSchema(Config{Resolvers: r}))
	exec.Use(extension.Introspection{})
	exec.SetErrorPresenter(ErrorPresenter(r.log()))
	exec.SetRecoverFunc(RecoverFunc(r.log()))

	ctx = graphql.StartOperationTrace(ctx)
	params := &graphql.RawParams{
		Query:         query,
		Variables:     variables,
		OperationName: operationName,
	}

	opCtx, errs := exec.CreateOperationContext(ctx, params)
	if errs != nil {
		return exec.DispatchError(graphql.WithOperationContext(ctx, opCtx), errs)
	}

	handler, ctx := exec.DispatchOperation(ctx, opCtx)
	return handler(ctx)
}

// FormatErrors formats GraphQL errors into a single error.
func FormatErrors(errs gqlerror.List) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return fmt.Errorf("graphql: %s", errs[0].Message)
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return fmt.Errorf("graphql errors:\n  %s", strings.Join(msgs, "\n  "))
}

// SchemaSDL returns the schema in SDL form.
func SchemaSDL() string {
	var buf bytes.Buffer
	f := formatter.NewFormatter(&buf, formatter.WithIndent("  "))
	f.FormatSchema(parsedSchema)
	return buf.String()
}
