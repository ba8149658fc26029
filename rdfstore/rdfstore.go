// Package rdfstore is the static executor: it sends the rewritten SPARQL
// text to an RDF endpoint over HTTP and parses the SPARQL-JSON result
// into a *frame.Frame. The static store is consumed read-only through the
// single Select operation, so the Endpoint interface carries nothing else;
// the engine never depends on a concrete client.
package rdfstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/prediktor/quarry/frame"
	"github.com/prediktor/quarry/qerr"
)

// Endpoint is the static executor's sole dependency: a SPARQL SELECT
// text goes in, a tabular frame comes out.
type Endpoint interface {
	Select(ctx context.Context, query string) (*frame.Frame, error)
}

// HTTPEndpoint is an Endpoint backed by a SPARQL 1.1 Protocol HTTP
// endpoint.
type HTTPEndpoint struct {
	URL    string
	Client *http.Client
}

// NewHTTPEndpoint returns an HTTPEndpoint using http.DefaultClient.
func NewHTTPEndpoint(endpointURL string) *HTTPEndpoint {
	return &HTTPEndpoint{URL: endpointURL}
}

func (e *HTTPEndpoint) httpClient() *http.Client {
	if e.Client != nil {
		return e.Client
	}
	return http.DefaultClient
}

// Select POSTs query to the endpoint and decodes the SPARQL-JSON result
// set. Transport-level failures are wrapped as qerr.KindEndpoint, never
// retried; retry is a policy decision left to callers.
func (e *HTTPEndpoint) Select(ctx context.Context, query string) (*frame.Frame, error) {
	form := url.Values{}
	form.Set("query", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, qerr.KindEndpoint.New(err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := e.httpClient().Do(req)
	if err != nil {
		return nil, qerr.KindEndpoint.New(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, qerr.KindEndpoint.New(fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)))
	}
	f, err := decodeBindings(resp.Body)
	if err != nil {
		return nil, qerr.KindEndpoint.New(err.Error())
	}
	return f, nil
}

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// bindingValue is one column's cell in the SPARQL-JSON "bindings" array.
type bindingValue struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

type sparqlResponse struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]bindingValue `json:"bindings"`
	} `json:"results"`
}

// decodeBindings parses a SPARQL-JSON response body into a Frame: columns
// ending in `_signal_id` parse as 32-bit integers, columns ending in
// `_is_ext_var` parse as booleans, and any variable missing from a given
// binding row yields NULL rather than an error.
func decodeBindings(r io.Reader) (*frame.Frame, error) {
	var resp sparqlResponse
	if err := jsonAPI.NewDecoder(r).Decode(&resp); err != nil {
		return nil, err
	}
	rows := make([]frame.Row, 0, len(resp.Results.Bindings))
	for _, b := range resp.Results.Bindings {
		row := make(frame.Row, len(resp.Head.Vars))
		for _, col := range resp.Head.Vars {
			bv, ok := b[col]
			if !ok {
				row[col] = nil
				continue
			}
			row[col] = cellFor(col, bv)
		}
		rows = append(rows, row)
	}
	return frame.New(resp.Head.Vars, rows), nil
}

func cellFor(col string, bv bindingValue) *frame.Cell {
	switch {
	case strings.HasSuffix(col, "_signal_id"):
		n, err := strconv.ParseInt(bv.Value, 10, 32)
		if err != nil {
			return nil
		}
		return frame.IntCell(int32(n))
	case strings.HasSuffix(col, "_is_ext_var"):
		b, err := strconv.ParseBool(bv.Value)
		if err != nil {
			return nil
		}
		return frame.BoolCell(b)
	default:
		return frame.StrCell(bv.Value)
	}
}
