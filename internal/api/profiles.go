package api

import (
	"context"
	"net/http"
	"net/url"
)

// SaveProfileRequest is the body of profile save and update calls.
type SaveProfileRequest struct {
	ProfileName  string       `json:"profile_name"`
	BirthDetails BirthDetails `json:"birth_details"`
}

// ListProfiles retrieves all saved profiles for the authenticated user
func (c *Client) ListProfiles(ctx context.Context) (*ProfileList, error) {
	var list ProfileList
	if err := c.Do(ctx, http.MethodGet, "/api/profiles/list", nil, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// SaveProfile stores a new profile.
func (c *Client) SaveProfile(ctx context.Context, name string, details BirthDetails) (*StatusResponse, error) {
	if err := c.ValidateBirthDetails(details); err != nil {
		return nil, err
	}

	var resp StatusResponse
	req := SaveProfileRequest{ProfileName: name, BirthDetails: details}
	if err := c.Do(ctx, http.MethodPost, "/api/profiles/save", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateProfile replaces the name and birth details of a profile.
func (c *Client) UpdateProfile(ctx context.Context, id, name string, details BirthDetails) (*StatusResponse, error) {
	if err := c.ValidateBirthDetails(details); err != nil {
		return nil, err
	}

	var resp StatusResponse
	req := SaveProfileRequest{ProfileName: name, BirthDetails: details}
	if err := c.Do(ctx, http.MethodPut, "/api/profiles/"+url.PathEscape(id), nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteProfile deletes a profile
func (c *Client) DeleteProfile(ctx context.Context, id string) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.Do(ctx, http.MethodDelete, "/api/profiles/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
