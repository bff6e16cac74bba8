package client

import (
	"context"
	"net/http"
	"net/url"
)

const (
	clientsPath   = "/Clients"
	locationsPath = "/Locations"
)

// Organization is a customer record (a "client" in the API's vocabulary).
type Organization struct {
	ID            int            `json:"Id"`
	Name          string         `json:"Name"`
	Address1      string         `json:"Address1,omitempty"`
	Address2      string         `json:"Address2,omitempty"`
	City          string         `json:"City,omitempty"`
	State         string         `json:"State,omitempty"`
	ZipCode       string         `json:"ZipCode,omitempty"`
	Country       string         `json:"Country,omitempty"`
	Phone         string         `json:"Phone,omitempty"`
	Fax           string         `json:"Fax,omitempty"`
	Website       string         `json:"Website,omitempty"`
	DateAdded     string         `json:"DateAdded,omitempty"`
	ExternalID    string         `json:"ExternalId,omitempty"`
	Comment       string         `json:"Comment,omitempty"`
	IsActive      *bool          `json:"IsActive,omitempty"`
	ContactCount  int            `json:"ContactCount,omitempty"`
	ComputerCount int            `json:"ComputerCount,omitempty"`
	Locations     []LocationInfo `json:"Locations,omitempty"`
}

// OrganizationData is the body of client create and update requests.
type OrganizationData struct {
	Name       string `json:"Name,omitempty"`
	Address1   string `json:"Address1,omitempty"`
	Address2   string `json:"Address2,omitempty"`
	City       string `json:"City,omitempty"`
	State      string `json:"State,omitempty"`
	ZipCode    string `json:"ZipCode,omitempty"`
	Country    string `json:"Country,omitempty"`
	Phone      string `json:"Phone,omitempty"`
	Fax        string `json:"Fax,omitempty"`
	Website    string `json:"Website,omitempty"`
	ExternalID string `json:"ExternalId,omitempty"`
	Comment    string `json:"Comment,omitempty"`
	IsActive   *bool  `json:"IsActive,omitempty"` // update only
}

type ClientListOptions struct {
	ListOptions
	IncludeInactive *bool
	Name            string
}

func (o ClientListOptions) values() url.Values {
	q := o.ListOptions.values()
	setBool(q, "includeInactive", o.IncludeInactive)
	setString(q, "name", o.Name)
	return q
}

// ClientsService manages customer organizations.
type ClientsService service

func (s *ClientsService) List(ctx context.Context, opts ClientListOptions) (*ListResponse[Organization], error) {
	return list[Organization](ctx, s.r, clientsPath, opts.values())
}

func (s *ClientsService) ListAll(opts ClientListOptions) *Pager[Organization] {
	return listAll[Organization](s.r, clientsPath, opts.values(), opts.PageSize)
}

func (s *ClientsService) Get(ctx context.Context, id int) (*Organization, error) {
	return send[Organization](ctx, s.r, http.MethodGet, idPath(clientsPath, id), nil)
}

func (s *ClientsService) Create(ctx context.Context, data OrganizationData) (*Organization, error) {
	return send[Organization](ctx, s.r, http.MethodPost, clientsPath, data)
}

func (s *ClientsService) Update(ctx context.Context, id int, data OrganizationData) (*Organization, error) {
	return send[Organization](ctx, s.r, http.MethodPatch, idPath(clientsPath, id), data)
}

func (s *ClientsService) Delete(ctx context.Context, id int) error {
	return do(ctx, s.r, http.MethodDelete, idPath(clientsPath, id), nil)
}

// Location is a site belonging to a client.
type Location struct {
	ID            int    `json:"Id"`
	Name          string `json:"Name"`
	ClientID      int    `json:"ClientId"`
	Address1      string `json:"Address1,omitempty"`
	Address2      string `json:"Address2,omitempty"`
	City          string `json:"City,omitempty"`
	State         string `json:"State,omitempty"`
	ZipCode       string `json:"ZipCode,omitempty"`
	Country       string `json:"Country,omitempty"`
	Phone         string `json:"Phone,omitempty"`
	Fax           string `json:"Fax,omitempty"`
	IsDefault     bool   `json:"IsDefault,omitempty"`
	DateAdded     string `json:"DateAdded,omitempty"`
	Comment       string `json:"Comment,omitempty"`
	ComputerCount int    `json:"ComputerCount,omitempty"`
}

// LocationData is the body of location create and update requests.
// ClientID is only sent on create.
type LocationData struct {
	Name      string `json:"Name,omitempty"`
	ClientID  int    `json:"ClientId,omitempty"`
	Address1  string `json:"Address1,omitempty"`
	Address2  string `json:"Address2,omitempty"`
	City      string `json:"City,omitempty"`
	State     string `json:"State,omitempty"`
	ZipCode   string `json:"ZipCode,omitempty"`
	Country   string `json:"Country,omitempty"`
	Phone     string `json:"Phone,omitempty"`
	Fax       string `json:"Fax,omitempty"`
	Comment   string `json:"Comment,omitempty"`
	IsDefault *bool  `json:"IsDefault,omitempty"`
}

type LocationListOptions struct {
	ListOptions
	ClientID int
}

func (o LocationListOptions) values() url.Values {
	q := o.ListOptions.values()
	setInt(q, "clientId", o.ClientID)
	return q
}

// LocationsService manages client sites.
type LocationsService service

func (s *LocationsService) List(ctx context.Context, opts LocationListOptions) (*ListResponse[Location], error) {
	return list[Location](ctx, s.r, locationsPath, opts.values())
}

func (s *LocationsService) ListAll(opts LocationListOptions) *Pager[Location] {
	return listAll[Location](s.r, locationsPath, opts.values(), opts.PageSize)
}

func (s *LocationsService) Get(ctx context.Context, id int) (*Location, error) {
	return send[Location](ctx, s.r, http.MethodGet, idPath(locationsPath, id), nil)
}

func (s *LocationsService) Create(ctx context.Context, data LocationData) (*Location, error) {
	return send[Location](ctx, s.r, http.MethodPost, locationsPath, data)
}

func (s *LocationsService) Update(ctx context.Context, id int, data LocationData) (*Location, error) {
	data.ClientID = 0
	return send[Location](ctx, s.r, http.MethodPatch, idPath(locationsPath, id), data)
}

func (s *LocationsService) Delete(ctx context.Context, id int) error {
	return do(ctx, s.r, http.MethodDelete, idPath(locationsPath, id), nil)
}
