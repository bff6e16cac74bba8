package client

import (
	"context"
	"net/http"
	"net/url"
)

const scriptsPath = "/Scripts"

type Script struct {
	ID           int               `json:"Id"`
	Name         string            `json:"Name"`
	Description  string            `json:"Description,omitempty"`
	FolderID     int               `json:"FolderId,omitempty"`
	FolderName   string            `json:"FolderName,omitempty"`
	GUID         string            `json:"Guid,omitempty"`
	ScriptType   string            `json:"ScriptType,omitempty"` // Function, Script or Maintenance
	LicenseType  string            `json:"LicenseType,omitempty"`
	Parameters   []ScriptParameter `json:"Parameters,omitempty"`
	IsEnabled    bool              `json:"IsEnabled,omitempty"`
	DateCreated  string            `json:"DateCreated,omitempty"`
	DateModified string            `json:"DateModified,omitempty"`
	ModifiedBy   string            `json:"ModifiedBy,omitempty"`
	Version      int               `json:"Version,omitempty"`
}

type ScriptParameter struct {
	Name         string `json:"Name"`
	Type         string `json:"Type"`
	DefaultValue string `json:"DefaultValue,omitempty"`
	IsRequired   bool   `json:"IsRequired,omitempty"`
	Description  string `json:"Description,omitempty"`
}

type ScriptListOptions struct {
	ListOptions
	FolderID   int
	ScriptType string
	Name       string
}

func (o ScriptListOptions) values() url.Values {
	q := o.ListOptions.values()
	setInt(q, "folderId", o.FolderID)
	setString(q, "scriptType", o.ScriptType)
	setString(q, "name", o.Name)
	return q
}

// ScriptRun queues a script on a set of computers.
type ScriptRun struct {
	ScriptID    int            `json:"ScriptId"`
	ComputerIDs []int          `json:"ComputerIds"`
	Parameters  map[string]any `json:"Parameters,omitempty"`
	Priority    int            `json:"Priority,omitempty"`
	OfflineMode bool           `json:"OfflineMode,omitempty"`
}

type ScriptJob struct {
	JobID       string `json:"JobId"`
	ScriptID    int    `json:"ScriptId"`
	ComputerIDs []int  `json:"ComputerIds"`
	Status      string `json:"Status"`
	Message     string `json:"Message,omitempty"`
	QueuedDate  string `json:"QueuedDate"`
}

// ScriptExecution is the per-computer record of a script run.
type ScriptExecution struct {
	ID           int    `json:"Id"`
	ScriptID     int    `json:"ScriptId"`
	ScriptName   string `json:"ScriptName,omitempty"`
	ComputerID   int    `json:"ComputerId"`
	ComputerName string `json:"ComputerName,omitempty"`
	Status       string `json:"Status"`
	StartTime    string `json:"StartTime,omitempty"`
	EndTime      string `json:"EndTime,omitempty"`
	Duration     int    `json:"Duration,omitempty"`
	ExitCode     *int   `json:"ExitCode,omitempty"`
	Output       string `json:"Output,omitempty"`
	ErrorMessage string `json:"ErrorMessage,omitempty"`
}

type ScriptExecutionListOptions struct {
	ListOptions
	ScriptID   int
	ComputerID int
	Status     string
	StartDate  string
	EndDate    string
}

func (o ScriptExecutionListOptions) values() url.Values {
	q := o.ListOptions.values()
	setInt(q, "scriptId", o.ScriptID)
	setInt(q, "computerId", o.ComputerID)
	setString(q, "status", o.Status)
	setString(q, "startDate", o.StartDate)
	setString(q, "endDate", o.EndDate)
	return q
}

type ScriptFolder struct {
	ID          int            `json:"Id"`
	Name        string         `json:"Name"`
	ParentID    int            `json:"ParentId,omitempty"`
	ScriptCount int            `json:"ScriptCount,omitempty"`
	Children    []ScriptFolder `json:"Children,omitempty"`
}

type ScriptsService service

func (s *ScriptsService) List(ctx context.Context, opts ScriptListOptions) (*ListResponse[Script], error) {
	return list[Script](ctx, s.r, scriptsPath, opts.values())
}

func (s *ScriptsService) ListAll(opts ScriptListOptions) *Pager[Script] {
	return listAll[Script](s.r, scriptsPath, opts.values(), opts.PageSize)
}

func (s *ScriptsService) Get(ctx context.Context, id int) (*Script, error) {
	return send[Script](ctx, s.r, http.MethodGet, idPath(scriptsPath, id), nil)
}

// Execute queues run and returns the job handle.
func (s *ScriptsService) Execute(ctx context.Context, run ScriptRun) (*ScriptJob, error) {
	return send[ScriptJob](ctx, s.r, http.MethodPost, scriptsPath+"/Execute", run)
}

func (s *ScriptsService) Executions(ctx context.Context, opts ScriptExecutionListOptions) (*ListResponse[ScriptExecution], error) {
	return list[ScriptExecution](ctx, s.r, scriptsPath+"/Executions", opts.values())
}

func (s *ScriptsService) ExecutionsAll(opts ScriptExecutionListOptions) *Pager[ScriptExecution] {
	return listAll[ScriptExecution](s.r, scriptsPath+"/Executions", opts.values(), opts.PageSize)
}

func (s *ScriptsService) GetExecution(ctx context.Context, id int) (*ScriptExecution, error) {
	return send[ScriptExecution](ctx, s.r, http.MethodGet, idPath(scriptsPath+"/Executions", id), nil)
}

// Folders returns the folder tree; this endpoint is not paged.
func (s *ScriptsService) Folders(ctx context.Context) ([]ScriptFolder, error) {
	var out []ScriptFolder
	if err := s.r.Execute(ctx, scriptsPath+"/Folders", RequestOptions{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ScriptsService) GetFolder(ctx context.Context, id int) (*ScriptFolder, error) {
	return send[ScriptFolder](ctx, s.r, http.MethodGet, idPath(scriptsPath+"/Folders", id), nil)
}
