package qiskit_runtime_go

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

const (
	instanceQuery = "service_name:quantum-computing"
	// searchPageSize is the page size asked of Global Search
	searchPageSize = 100
	// maxSearchPages bounds pagination so a misbehaving cursor cannot loop forever
	maxSearchPages = 20
)

// Instance is a quantum service instance (a CRN) visible to the account
type Instance struct {
	CRN  string `json:"crn"`
	Name string `json:"name"`
	Plan string `json:"service_plan_unique_id,omitempty"`
}

type searchReq struct {
	Query        string   `json:"query,omitempty"`
	Fields       []string `json:"fields,omitempty"`
	SearchCursor string   `json:"search_cursor,omitempty"`
}

type searchResp struct {
	Items        []Instance `json:"items"`
	SearchCursor string     `json:"search_cursor"`
	Limit        int        `json:"limit"`
}

// searchInstances lists every quantum instance through Global Search. A page
// failure aborts the listing; a partial list is never returned.
func (c *conn) searchInstances(ctx context.Context) ([]Instance, error) {
	const op = "instance_search"

	url := fmt.Sprintf("%s/v3/resources/search?limit=%d", strings.TrimRight(c.opts.searchUrl, "/"), searchPageSize)
	req := searchReq{
		Query:  instanceQuery,
		Fields: []string{"crn", "name", "service_plan_unique_id", "doc"},
	}

	var instances []Instance
	for page := 0; ; page++ {
		if page == maxSearchPages {
			return nil, &Error{Op: op, Kind: KindUnhandled, Service: ServiceGlobalSearch, Msg: fmt.Sprintf("instance search did not finish within %d pages", maxSearchPages)}
		}

		body, err := json.Marshal(req)
		if err != nil {
			return nil, &Error{Op: op, Kind: KindValidation, Msg: "could not encode search request", Err: err}
		}

		var resp searchResp
		err = c.do(ctx, op, request{service: ServiceGlobalSearch, method: http.MethodPost, url: url, body: body}, &resp)
		if err != nil {
			return nil, err
		}

		for _, in := range resp.Items {
			if in.CRN != "" {
				instances = append(instances, in)
			}
		}

		limit := resp.Limit
		if limit == 0 {
			limit = searchPageSize
		}
		if resp.SearchCursor == "" || len(resp.Items) < limit {
			break
		}
		req = searchReq{SearchCursor: resp.SearchCursor}
	}

	return instances, nil
}
