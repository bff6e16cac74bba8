package client

import (
	"context"
	"net/http"
	"net/url"
)

const computersPath = "/Computers"

// Computer is a managed endpoint running the agent.
type Computer struct {
	ID                int              `json:"Id"`
	ComputerName      string           `json:"ComputerName"`
	ClientID          int              `json:"ClientId"`
	Client            *NamedRef        `json:"Client,omitempty"`
	LocationID        int              `json:"LocationId"`
	Location          *LocationInfo    `json:"Location,omitempty"`
	Domain            string           `json:"Domain,omitempty"`
	LastUserName      string           `json:"LastUserName,omitempty"`
	OS                string           `json:"OS,omitempty"`
	OSVersion         string           `json:"OSVersion,omitempty"`
	ServicePack       string           `json:"ServicePack,omitempty"`
	Type              string           `json:"Type,omitempty"`
	SerialNumber      string           `json:"SerialNumber,omitempty"`
	Model             string           `json:"Model,omitempty"`
	Manufacturer      string           `json:"Manufacturer,omitempty"`
	TotalMemory       float64          `json:"TotalMemory,omitempty"`
	TotalDiskSpace    float64          `json:"TotalDiskSpace,omitempty"`
	FreeDiskSpace     float64          `json:"FreeDiskSpace,omitempty"`
	LocalIPAddress    string           `json:"LocalIPAddress,omitempty"`
	MacAddress        string           `json:"MacAddress,omitempty"`
	ExternalIPAddress string           `json:"ExternalIPAddress,omitempty"`
	IsOnline          bool             `json:"IsOnline,omitempty"`
	LastContact       string           `json:"LastContact,omitempty"`
	LastHeartbeat     string           `json:"LastHeartbeat,omitempty"`
	DateAdded         string           `json:"DateAdded,omitempty"`
	AgentVersion      string           `json:"AgentVersion,omitempty"`
	IsVirtual         bool             `json:"IsVirtual,omitempty"`
	UptimeSeconds     int64            `json:"UptimeSeconds,omitempty"`
	Comment           string           `json:"Comment,omitempty"`
	AssetTag          string           `json:"AssetTag,omitempty"`
	ExtraDataFields   []ExtraDataField `json:"ExtraDataFields,omitempty"`
}

// NamedRef is an embedded {Id, Name} reference.
type NamedRef struct {
	ID   int    `json:"Id"`
	Name string `json:"Name"`
}

// LocationInfo is the location summary embedded in other entities.
type LocationInfo struct {
	ID       int    `json:"Id"`
	Name     string `json:"Name"`
	ClientID int    `json:"ClientId"`
}

// ExtraDataField is a custom field value attached to an entity.
type ExtraDataField struct {
	ID         int    `json:"Id"`
	FieldName  string `json:"FieldName"`
	FieldValue string `json:"FieldValue"`
}

// ComputerListOptions filters computer listings.
type ComputerListOptions struct {
	ListOptions
	ClientID       int
	LocationID     int
	IncludeOffline *bool
	IsOnline       *bool
}

func (o ComputerListOptions) values() url.Values {
	q := o.ListOptions.values()
	setInt(q, "clientId", o.ClientID)
	setInt(q, "locationId", o.LocationID)
	setBool(q, "includeOffline", o.IncludeOffline)
	setBool(q, "isOnline", o.IsOnline)
	return q
}

// ComputerCreate is the body of a create request.
type ComputerCreate struct {
	ComputerName string `json:"ComputerName"`
	ClientID     int    `json:"ClientId"`
	LocationID   int    `json:"LocationId"`
	Comment      string `json:"Comment,omitempty"`
	AssetTag     string `json:"AssetTag,omitempty"`
}

// ComputerUpdate is the body of a partial update.
type ComputerUpdate struct {
	ComputerName string `json:"ComputerName,omitempty"`
	LocationID   int    `json:"LocationId,omitempty"`
	Comment      string `json:"Comment,omitempty"`
	AssetTag     string `json:"AssetTag,omitempty"`
}

// ComputerCommand is a command to run on an agent.
type ComputerCommand struct {
	Command    string         `json:"Command"`
	Parameters map[string]any `json:"Parameters,omitempty"`
	RunAsAdmin bool           `json:"RunAsAdmin,omitempty"`
	PowerShell bool           `json:"PowerShell,omitempty"`
}

// CommandResult is the outcome of a ComputerCommand.
type CommandResult struct {
	ComputerID int    `json:"ComputerId"`
	Output     string `json:"Output"`
	ExitCode   int    `json:"ExitCode"`
	Success    bool   `json:"Success"`
	ExecutedAt string `json:"ExecutedAt"`
}

// PowerOptions control restart and shutdown.
type PowerOptions struct {
	Force        bool `json:"Force,omitempty"`
	DelayMinutes int  `json:"DelayMinutes,omitempty"`
}

// ComputersService manages agents.
type ComputersService service

func (s *ComputersService) List(ctx context.Context, opts ComputerListOptions) (*ListResponse[Computer], error) {
	return list[Computer](ctx, s.r, computersPath, opts.values())
}

func (s *ComputersService) ListAll(opts ComputerListOptions) *Pager[Computer] {
	return listAll[Computer](s.r, computersPath, opts.values(), opts.PageSize)
}

func (s *ComputersService) Get(ctx context.Context, id int) (*Computer, error) {
	return send[Computer](ctx, s.r, http.MethodGet, idPath(computersPath, id), nil)
}

func (s *ComputersService) Create(ctx context.Context, data ComputerCreate) (*Computer, error) {
	return send[Computer](ctx, s.r, http.MethodPost, computersPath, data)
}

func (s *ComputersService) Update(ctx context.Context, id int, data ComputerUpdate) (*Computer, error) {
	return send[Computer](ctx, s.r, http.MethodPatch, idPath(computersPath, id), data)
}

func (s *ComputersService) Delete(ctx context.Context, id int) error {
	return do(ctx, s.r, http.MethodDelete, idPath(computersPath, id), nil)
}

// ExecuteCommand runs cmd on the computer and waits for its result.
func (s *ComputersService) ExecuteCommand(ctx context.Context, id int, cmd ComputerCommand) (*CommandResult, error) {
	return send[CommandResult](ctx, s.r, http.MethodPost, idPath(computersPath, id, "CommandExecute"), cmd)
}

// SendMessage shows a message to the logged-in user. title may be empty.
func (s *ComputersService) SendMessage(ctx context.Context, id int, message, title string) error {
	body := struct {
		Message string `json:"Message"`
		Title   string `json:"Title,omitempty"`
	}{message, title}
	return do(ctx, s.r, http.MethodPost, idPath(computersPath, id, "SendMessage"), body)
}

func (s *ComputersService) Restart(ctx context.Context, id int, opts PowerOptions) error {
	return do(ctx, s.r, http.MethodPost, idPath(computersPath, id, "Restart"), opts)
}

func (s *ComputersService) Shutdown(ctx context.Context, id int, opts PowerOptions) error {
	return do(ctx, s.r, http.MethodPost, idPath(computersPath, id, "Shutdown"), opts)
}

// WakeUp sends a wake-on-LAN request through the agent's network.
func (s *ComputersService) WakeUp(ctx context.Context, id int) error {
	return do(ctx, s.r, http.MethodPost, idPath(computersPath, id, "WakeUp"), nil)
}
