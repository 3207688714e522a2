// internal/collaborators/search/remote.go
package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "shopping-assistant/internal/common/errors"
	commonhttp "shopping-assistant/internal/common/http"
	"shopping-assistant/internal/models"
)

// Remote drives a hosted search/extraction service. Each interaction opens its own
// server-side search and refers to it by the returned search id.
type Remote struct {
	baseURL string
	client  *commonhttp.Client
}

func NewRemote(baseURL, apiKey string, timeout time.Duration, maxRetries int) *Remote {
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: commonhttp.NewClient(timeout,
			commonhttp.WithMaxRetries(maxRetries),
			commonhttp.WithHeader("Authorization", bearer(apiKey)),
		),
	}
}

func bearer(key string) string {
	if key == "" {
		return ""
	}
	return "Bearer " + key
}

func (r *Remote) Begin() Interaction {
	return &remoteInteraction{remote: r}
}

type remoteInteraction struct {
	remote   *Remote
	searchID string
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchHandle struct {
	SearchID string `json:"searchId"`
}

type resultsResponse struct {
	Products []models.ProductRecord `json:"products"`
}

func (i *remoteInteraction) Search(ctx context.Context, term string) error {
	var handle searchHandle
	if err := i.remote.client.DoJSON(ctx, http.MethodPost, i.remote.baseURL+"/v1/searches", searchRequest{Query: term}, &handle); err != nil {
		return remoteError("search", err)
	}
	if handle.SearchID == "" {
		return apperrors.NewSearchCollaboratorError("search", fmt.Errorf("response carried no search id"))
	}
	i.searchID = handle.SearchID
	return nil
}

func (i *remoteInteraction) ApplyFilters(ctx context.Context, filters Filters) error {
	if i.searchID == "" {
		return apperrors.NewSearchCollaboratorError("apply_filters", fmt.Errorf("no search in progress"))
	}
	endpoint := fmt.Sprintf("%s/v1/searches/%s/filters", i.remote.baseURL, url.PathEscape(i.searchID))
	if err := i.remote.client.DoJSON(ctx, http.MethodPost, endpoint, filters, nil); err != nil {
		return remoteError("apply_filters", err)
	}
	return nil
}

func (i *remoteInteraction) ExtractResults(ctx context.Context, maxCount int) ([]models.ProductRecord, error) {
	if i.searchID == "" {
		return nil, apperrors.NewSearchCollaboratorError("extract_results", fmt.Errorf("no search in progress"))
	}
	endpoint := fmt.Sprintf("%s/v1/searches/%s/results?max=%d", i.remote.baseURL, url.PathEscape(i.searchID), maxCount)
	var out resultsResponse
	if err := i.remote.client.DoJSON(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, remoteError("extract_results", err)
	}
	if len(out.Products) > maxCount {
		out.Products = out.Products[:maxCount]
	}
	return out.Products, nil
}

func remoteError(operation string, err error) error {
	if errors.Is(err, commonhttp.ErrTimeout) {
		return apperrors.NewSearchTimeoutError(operation)
	}
	return apperrors.NewSearchCollaboratorError(operation, err)
}
