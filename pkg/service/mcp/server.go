package mcp

import (
	"context"
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mochisura/marketer/pkg/model"
	"github.com/mochisura/marketer/pkg/utils/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Curator is the archive and curation backend exposed as MCP tools
type Curator interface {
	Curate(ctx context.Context, topic string) (*model.Curation, error)
	Save(ctx context.Context, record *model.Record) (bool, error)
	History(ctx context.Context) ([]*model.Record, error)
}

// Server exposes the news archive to MCP clients
type Server struct {
	server *mcp.Server
}

type listArchiveInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"return only the most recent N records; 0 returns all"`
}

type listArchiveOutput struct {
	Records []*model.Record `json:"records"`
	Total   int             `json:"total"`
}

type saveInput struct {
	Analysis   string `json:"analysis,omitempty" jsonschema:"technical analysis of the news"`
	Summary    string `json:"summary" jsonschema:"short summary; the first 50 characters identify the news"`
	Source     string `json:"source,omitempty" jsonschema:"original media or publication"`
	Commentary string `json:"commentary,omitempty" jsonschema:"commentary for readers"`
}

type saveOutput struct {
	Added bool `json:"added"`
}

type curateInput struct {
	Topic string `json:"topic,omitempty" jsonschema:"optional topic to focus the research on"`
}

type curateOutput struct {
	Structured bool   `json:"structured"`
	Archived   bool   `json:"archived"`
	Analysis   string `json:"analysis"`
	Summary    string `json:"summary"`
	Source     string `json:"source"`
	Commentary string `json:"commentary"`
	Raw        string `json:"raw"`
	ModelUsed  string `json:"model_used"`
}

// saveInputSchema is the inferred schema of saveInput with a non-empty summary
func saveInputSchema() (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[saveInput](&jsonschema.ForOptions{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to infer save_to_archive schema")
	}
	schema.Properties["summary"].MinLength = jsonschema.Ptr(1)
	return schema, nil
}

func listArchiveInputSchema() (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[listArchiveInput](&jsonschema.ForOptions{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to infer list_archive schema")
	}
	schema.Properties["limit"].Minimum = jsonschema.Ptr(0.0)
	return schema, nil
}

// NewServer registers the archive tools on a new MCP server
func NewServer(curator Curator, version string) (*Server, error) {
	listSchema, err := listArchiveInputSchema()
	if err != nil {
		return nil, err
	}
	saveSchema, err := saveInputSchema()
	if err != nil {
		return nil, err
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "marketer",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_archive",
		Description: "List archived AI news records, oldest first",
		InputSchema: listSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, in listArchiveInput) (*mcp.CallToolResult, listArchiveOutput, error) {
		records, err := curator.History(ctx)
		if err != nil {
			return nil, listArchiveOutput{}, goerr.Wrap(err, "failed to list archive")
		}
		if records == nil {
			records = []*model.Record{}
		}

		total := len(records)
		if in.Limit > 0 && total > in.Limit {
			records = records[total-in.Limit:]
		}
		return nil, listArchiveOutput{Records: records, Total: total}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "save_to_archive",
		Description: "Save a news record unless a record with the same summary prefix exists",
		InputSchema: saveSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, in saveInput) (*mcp.CallToolResult, saveOutput, error) {
		added, err := curator.Save(ctx, &model.Record{
			Analysis:   in.Analysis,
			Summary:    in.Summary,
			Source:     in.Source,
			Commentary: in.Commentary,
		})
		if err != nil {
			return nil, saveOutput{}, err
		}
		logging.From(ctx).Info("saved via mcp", "added", added)
		return nil, saveOutput{Added: added}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "curate_news",
		Description: "Research the latest AI news and archive it when new",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in curateInput) (*mcp.CallToolResult, curateOutput, error) {
		c, err := curator.Curate(ctx, in.Topic)
		if err != nil {
			return nil, curateOutput{}, err
		}
		return nil, curateOutput{
			Structured: c.Structured,
			Archived:   c.Archived,
			Analysis:   c.Analysis,
			Summary:    c.Summary,
			Source:     c.Source,
			Commentary: c.Commentary,
			Raw:        c.Raw,
			ModelUsed:  c.ModelUsed,
		}, nil
	})

	return &Server{server: server}, nil
}

// Run serves MCP over stdin/stdout until ctx is canceled or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	logging.From(ctx).Info("mcp server started", "transport", "stdio")
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "mcp server stopped")
	}
	return nil
}

// HTTPHandler serves the same tools over the streamable HTTP transport
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// Connect attaches the server to a transport and returns the session
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	session, err := s.server.Connect(ctx, t, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect mcp server")
	}
	return session, nil
}
