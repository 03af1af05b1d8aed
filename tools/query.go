package tools

import (
	"context"
	"errors"

	"github.com/intelcave/thinkmachine/internal/builtin"
	"github.com/intelcave/thinkmachine/tool"
)

// QueryInput defines the input for query_postgres_database.
type QueryInput struct {
	ConnectionString string `json:"connection_string" jsonschema:"required,description=PostgreSQL connection string"`
	Query            string `json:"query" jsonschema:"required,description=A read-only SQL query"`
}

// QueryTool runs read-only SQL through the database proxy.
type QueryTool struct{ Client *builtin.QueryClient }

var _ tool.Tool[QueryInput] = (*QueryTool)(nil)

func (t *QueryTool) Name() string { return QueryDatabase.ToolName() }
func (t *QueryTool) Description() string {
	return "Run a read-only SQL query against a PostgreSQL database and return the result as JSON. " +
		"Statements that modify data or schema are rejected."
}

func (t *QueryTool) Execute(ctx context.Context, input QueryInput) (*tool.Result, error) {
	client := t.Client
	if client == nil {
		client = builtin.NewQueryClient("", 0, nil)
	}
	out := client.Run(ctx, input.ConnectionString, input.Query)

	var res *tool.Result
	switch {
	case out.Rejected:
		res = tool.ErrorResult("Query execution failed: " + builtin.ErrMutatingQuery.Error())
	case out.TimedOut:
		res = tool.ErrorResult("Query execution timed out")
	case out.Err != nil:
		msg := out.Err.Error()
		if errors.Is(out.Err, context.Canceled) {
			msg = "canceled"
		}
		res = tool.ErrorResult("Query execution failed: " + msg)
	default:
		res = tool.TextResult(string(out.Body))
	}
	return res.
		WithMetadata("rejected", out.Rejected).
		WithMetadata("timed_out", out.TimedOut), nil
}
