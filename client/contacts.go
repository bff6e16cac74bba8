package client

import (
	"context"
	"net/http"
	"net/url"
)

const contactsPath = "/Contacts"

// Contact is a person attached to a client.
type Contact struct {
	ID          int    `json:"Id"`
	FirstName   string `json:"FirstName"`
	LastName    string `json:"LastName"`
	FullName    string `json:"FullName,omitempty"`
	ClientID    int    `json:"ClientId"`
	LocationID  int    `json:"LocationId,omitempty"`
	Email       string `json:"Email,omitempty"`
	Phone       string `json:"Phone,omitempty"`
	MobilePhone string `json:"MobilePhone,omitempty"`
	Title       string `json:"Title,omitempty"`
	IsPrimary   bool   `json:"IsPrimary,omitempty"`
	ExternalID  string `json:"ExternalId,omitempty"`
	Comment     string `json:"Comment,omitempty"`
	DateAdded   string `json:"DateAdded,omitempty"`
}

// ContactData is the body of contact create and update requests.
type ContactData struct {
	FirstName   string `json:"FirstName,omitempty"`
	LastName    string `json:"LastName,omitempty"`
	ClientID    int    `json:"ClientId,omitempty"`
	LocationID  int    `json:"LocationId,omitempty"`
	Email       string `json:"Email,omitempty"`
	Phone       string `json:"Phone,omitempty"`
	MobilePhone string `json:"MobilePhone,omitempty"`
	Title       string `json:"Title,omitempty"`
	IsPrimary   *bool  `json:"IsPrimary,omitempty"`
	ExternalID  string `json:"ExternalId,omitempty"`
	Comment     string `json:"Comment,omitempty"`
}

type ContactListOptions struct {
	ListOptions
	ClientID   int
	LocationID int
	Email      string
}

func (o ContactListOptions) values() url.Values {
	q := o.ListOptions.values()
	setInt(q, "clientId", o.ClientID)
	setInt(q, "locationId", o.LocationID)
	setString(q, "email", o.Email)
	return q
}

type ContactsService service

func (s *ContactsService) List(ctx context.Context, opts ContactListOptions) (*ListResponse[Contact], error) {
	return list[Contact](ctx, s.r, contactsPath, opts.values())
}

func (s *ContactsService) ListAll(opts ContactListOptions) *Pager[Contact] {
	return listAll[Contact](s.r, contactsPath, opts.values(), opts.PageSize)
}

func (s *ContactsService) Get(ctx context.Context, id int) (*Contact, error) {
	return send[Contact](ctx, s.r, http.MethodGet, idPath(contactsPath, id), nil)
}

func (s *ContactsService) Create(ctx context.Context, data ContactData) (*Contact, error) {
	return send[Contact](ctx, s.r, http.MethodPost, contactsPath, data)
}

func (s *ContactsService) Update(ctx context.Context, id int, data ContactData) (*Contact, error) {
	data.ClientID = 0
	return send[Contact](ctx, s.r, http.MethodPatch, idPath(contactsPath, id), data)
}

func (s *ContactsService) Delete(ctx context.Context, id int) error {
	return do(ctx, s.r, http.MethodDelete, idPath(contactsPath, id), nil)
}
