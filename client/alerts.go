package client

import (
	"context"
	"net/http"
	"net/url"
)

const alertsPath = "/Alerts"

// Alert statuses.
const (
	AlertNew          = "New"
	AlertAcknowledged = "Acknowledged"
	AlertClosed       = "Closed"
)

type Alert struct {
	ID               int    `json:"Id"`
	Name             string `json:"Name"`
	Message          string `json:"Message,omitempty"`
	ComputerID       int    `json:"ComputerId,omitempty"`
	ComputerName     string `json:"ComputerName,omitempty"`
	ClientID         int    `json:"ClientId,omitempty"`
	ClientName       string `json:"ClientName,omitempty"`
	LocationID       int    `json:"LocationId,omitempty"`
	LocationName     string `json:"LocationName,omitempty"`
	Severity         int    `json:"Severity,omitempty"`
	AlertType        string `json:"AlertType,omitempty"`
	Source           string `json:"Source,omitempty"`
	Status           string `json:"Status,omitempty"`
	IsAcknowledged   bool   `json:"IsAcknowledged,omitempty"`
	AcknowledgedBy   string `json:"AcknowledgedBy,omitempty"`
	AcknowledgedDate string `json:"AcknowledgedDate,omitempty"`
	DateCreated      string `json:"DateCreated,omitempty"`
	DateModified     string `json:"DateModified,omitempty"`
	TicketID         int    `json:"TicketId,omitempty"`
}

type AlertListOptions struct {
	ListOptions
	ComputerID     int
	ClientID       int
	LocationID     int
	Severity       int
	Status         string
	IsAcknowledged *bool
	StartDate      string
	EndDate        string
}

func (o AlertListOptions) values() url.Values {
	q := o.ListOptions.values()
	setInt(q, "computerId", o.ComputerID)
	setInt(q, "clientId", o.ClientID)
	setInt(q, "locationId", o.LocationID)
	setInt(q, "severity", o.Severity)
	setString(q, "status", o.Status)
	setBool(q, "isAcknowledged", o.IsAcknowledged)
	setString(q, "startDate", o.StartDate)
	setString(q, "endDate", o.EndDate)
	return q
}

// AlertAction is the body of acknowledge and close requests.
type AlertAction struct {
	AlertIDs []int  `json:"AlertIds"`
	Notes    string `json:"Notes,omitempty"`
}

// AlertActionResult reports which alerts an acknowledge or close touched.
type AlertActionResult struct {
	Count                int   `json:"Count"`
	AcknowledgedAlertIDs []int `json:"AcknowledgedAlertIds"`
	FailedAlertIDs       []int `json:"FailedAlertIds,omitempty"`
}

type AlertStatistics struct {
	Total        int            `json:"Total"`
	New          int            `json:"New"`
	Acknowledged int            `json:"Acknowledged"`
	Closed       int            `json:"Closed"`
	BySeverity   map[string]int `json:"BySeverity"`
}

type AlertsService service

func (s *AlertsService) List(ctx context.Context, opts AlertListOptions) (*ListResponse[Alert], error) {
	return list[Alert](ctx, s.r, alertsPath, opts.values())
}

func (s *AlertsService) ListAll(opts AlertListOptions) *Pager[Alert] {
	return listAll[Alert](s.r, alertsPath, opts.values(), opts.PageSize)
}

func (s *AlertsService) Get(ctx context.Context, id int) (*Alert, error) {
	return send[Alert](ctx, s.r, http.MethodGet, idPath(alertsPath, id), nil)
}

func (s *AlertsService) Acknowledge(ctx context.Context, ids []int, notes string) (*AlertActionResult, error) {
	return send[AlertActionResult](ctx, s.r, http.MethodPost, alertsPath+"/Acknowledge", AlertAction{AlertIDs: ids, Notes: notes})
}

func (s *AlertsService) Close(ctx context.Context, ids []int, notes string) (*AlertActionResult, error) {
	return send[AlertActionResult](ctx, s.r, http.MethodPost, alertsPath+"/Close", AlertAction{AlertIDs: ids, Notes: notes})
}

// Statistics returns alert counts, optionally scoped to a client or location
// (zero means unscoped).
func (s *AlertsService) Statistics(ctx context.Context, clientID, locationID int) (*AlertStatistics, error) {
	q := url.Values{}
	setInt(q, "clientId", clientID)
	setInt(q, "locationId", locationID)
	var out AlertStatistics
	if err := s.r.Execute(ctx, alertsPath+"/Statistics", RequestOptions{Query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
