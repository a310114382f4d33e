package api

import "net/http"

// Endpoint is one backend route the client calls. Path uses {id} for
// resource ids, as in the backend's OpenAPI document.
type Endpoint struct {
	Method string
	Path   string
}

func (e Endpoint) String() string { return e.Method + " " + e.Path }

// Endpoints lists every route the client calls.
var Endpoints = []Endpoint{
	{http.MethodGet, "/health"},
	{http.MethodPost, "/api/auth/register"},
	{http.MethodPost, "/api/auth/login"},
	{http.MethodGet, "/api/user/profile"},
	{http.MethodGet, "/api/profiles/list"},
	{http.MethodPost, "/api/profiles/save"},
	{http.MethodPut, "/api/profiles/{id}"},
	{http.MethodDelete, "/api/profiles/{id}"},
	{http.MethodPost, "/api/location/search"},
	{http.MethodPost, "/api/astrology/birth-chart"},
	{http.MethodPost, "/api/astrology/horoscope"},
	{http.MethodPost, "/api/astrology/dhasa"},
	{http.MethodPost, "/api/astrology/transit"},
	{http.MethodPost, "/api/astrology/doshas"},
	{http.MethodPost, "/api/astrology/yogas"},
	{http.MethodPost, "/api/astrology/compatibility"},
	{http.MethodPost, "/api/astrology/compatibility-analysis"},
	{http.MethodPost, "/api/astrology/ask"},
	{http.MethodPost, "/api/astrology/predict"},
}
