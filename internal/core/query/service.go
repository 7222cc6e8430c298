package query

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"unicode/utf8"

	"docsearch/config"
	"docsearch/internal/httpclient"
	"docsearch/pkg/apperror"
	"docsearch/pkg/logger"

	"github.com/go-playground/validator/v10"
)

const path = "/query"

// Service asks questions against the indexed documents.
type Service struct {
	client   *httpclient.Client
	search   config.SearchConfig
	timeout  config.ClientConfig
	validate *validator.Validate
}

func NewService(client *httpclient.Client, cfg *config.Config) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	return &Service{
		client:   client,
		search:   cfg.Search,
		timeout:  cfg.Client,
		validate: v,
	}
}

// Query validates req and posts it to the backend. Every failure is an *apperror.AppError.
func (s *Service) Query(ctx context.Context, req Request) (*Response, error) {
	question := strings.TrimSpace(req.Question)
	if err := s.check(question, req.Config); err != nil {
		return nil, err
	}
	req.Question = question

	resp, err := httpclient.Post[Response](ctx, s.client, path, req,
		httpclient.WithTimeout(s.timeout.QueryTimeout))
	if err != nil {
		return nil, apperror.Wrap(err, func(cause error) *apperror.AppError {
			return apperror.NewSearch("Search failed due to an unexpected error", question, apperror.ReasonServiceUnavailable)
		})
	}

	if len(resp.Data.Sources) == 0 {
		logger.Info("%v: no results for %q", config.ModuleQuery, question)
		return nil, apperror.NewSearch("No relevant information found for your query", question, apperror.ReasonNoResults)
	}
	logger.Debug("%v: %d sources, confidence %.2f", config.ModuleQuery, len(resp.Data.Sources), resp.Data.Confidence)
	return &resp.Data, nil
}

func (s *Service) check(question string, cfg *Config) error {
	n := utf8.RuneCountInString(question)
	if n < s.search.MinQueryLength {
		return apperror.NewSearch("Please enter a search query", question, apperror.ReasonQueryTooShort)
	}
	if n > s.search.MaxQueryLength {
		return apperror.NewSearch("Search query is too long", question, apperror.ReasonQueryTooLong)
	}
	if cfg == nil {
		return nil
	}

	err := s.validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return apperror.NewValidation("Invalid query configuration", "config", err)
	}
	first := errs[0]
	return apperror.NewValidation(rangeMessage(first), first.Field(), err)
}

func rangeMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "max_chunks":
		return "max_chunks must be between 1 and 20"
	case "similarity_threshold":
		return "similarity_threshold must be between 0 and 1"
	case "max_response_tokens":
		return "max_response_tokens must be between 50 and 4000"
	case "temperature":
		return "temperature must be between 0 and 1"
	}
	return fe.Field() + " is invalid"
}

// jsonName reports fields by their wire name.
func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}
