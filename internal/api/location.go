package api

import (
	"context"
	"net/http"
	"strings"
)

// SearchLocation resolves a free-text place ("Chennai, India") to coordinates and UTC offset.
// An unknown place is not an error: the result has Success false and a Message.
func (c *Client) SearchLocation(ctx context.Context, query string) (*LocationResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Fields: []string{"query"}, Message: "Please enter a location"}
	}

	var res LocationResult
	body := map[string]string{"query": query}
	if err := c.Do(ctx, http.MethodPost, "/api/location/search", nil, body, &res); err != nil {
		return nil, err
	}
	if !res.Success && res.Message == "" {
		res.Message = "Location not found"
	}
	return &res, nil
}
